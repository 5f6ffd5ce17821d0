package i2c

import "periph.io/x/conn/v3"

var _ conn.Conn = (*Dev)(nil)

// Tx writes w then reads into r in one combined transfer.
func (d *Dev) Tx(w, r []byte) error {
	_, err := d.tx(w, r)
	return err
}

// Duplex is always half duplex on I2C.
func (d *Dev) Duplex() conn.Duplex { return conn.Half }

func (d *Dev) ReadReg(reg byte, dst []byte) error {
	return d.Tx([]byte{reg}, dst)
}

func (d *Dev) WriteReg(reg, value byte) error {
	return d.Tx([]byte{reg, value}, nil)
}
