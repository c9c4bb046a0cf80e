package adc

import (
	"fmt"

	"github.com/CamStan/WOU-CS490/internal/debug"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// PeriphSPI is an SPI port opened through periph.io. Host drivers must
// already be initialized (host.Init, done by the periph gpio backend).
type PeriphSPI struct {
	port spi.PortCloser
	conn spi.Conn
}

// OpenPeriphSPI opens the named port ("" = first available) in mode 0.
func OpenPeriphSPI(name string, speedHz int) (*PeriphSPI, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open spi port %q: %w", name, err)
	}
	return connectPeriph(p, speedHz)
}

func connectPeriph(p spi.PortCloser, speedHz int) (*PeriphSPI, error) {
	c, err := p.Connect(physic.Frequency(speedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to connect spi port %s: %w", p, err)
	}
	debug.Info("SPI port %s connected at %d Hz", p, speedHz)
	return &PeriphSPI{port: p, conn: c}, nil
}

func (s *PeriphSPI) Tx(w, r []byte) error {
	return s.conn.Tx(w, r)
}

func (s *PeriphSPI) Close() error {
	return s.port.Close()
}
