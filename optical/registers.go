package optical

// Register map of the PMW3360 optical motion sensor.
type register byte

const (
	regProductID    register = 0x00
	regRevisionID   register = 0x01
	regMotion       register = 0x02
	regDeltaXL      register = 0x03
	regDeltaXH      register = 0x04
	regDeltaYL      register = 0x05
	regDeltaYH      register = 0x06
	regConfig1      register = 0x0F
	regConfig2      register = 0x10
	regPowerUpReset register = 0x3A
)

// The top bit of the address byte selects the transaction direction: clear
// for reads, set for writes.
func readFrame(reg register) byte {
	return byte(reg) &^ 0x80
}

func writeFrame(reg register) byte {
	return byte(reg) | 0x80
}
