package lpphot

// CRC16 calculates the Modbus CRC16 checksum over data.
// Seed 0xFFFF, polynomial 0xA001, LSB first. The low byte of the result is
// transmitted first on the wire.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if (crc & 0x0001) != 0 {
				crc >>= 1
				crc ^= 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
