package modbus

import (
	"encoding/binary"
	"fmt"
)

// WriteMetric writes the given value to the given modbus metric
func (c *Client) WriteMetric(metric Metric, val interface{}) error {

	err := c.reconnectIfNeccesary()
	if err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}

	bytes := metric.DataType.toBytesFunc(val)
	nBytes := len(bytes)
	registerVals := make([]uint16, 0, nBytes/2)
	for i := 0; i < int(nBytes); i = i + 2 {
		registerVals = append(registerVals, binary.BigEndian.Uint16(bytes[i:i+2]))
	}

	err = c.subClient.WriteRegisters(metric.StartAddr, registerVals)
	if err != nil {
		c.setShouldReconnect()
		return fmt.Errorf("write register %d: %w", metric.StartAddr, err)
	}

	return nil
}

// WriteRegisters writes raw uint16 register values starting at startAddr, for callers that need
// to lay out a composite record (e.g. a TOU segment) themselves rather than through a Metric.
func (c *Client) WriteRegisters(startAddr uint16, vals []uint16) error {
	err := c.reconnectIfNeccesary()
	if err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}

	err = c.subClient.WriteRegisters(startAddr, vals)
	if err != nil {
		c.setShouldReconnect()
		return fmt.Errorf("write registers at %d: %w", startAddr, err)
	}

	return nil
}
