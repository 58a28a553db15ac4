package modbus

import (
	"encoding/binary"
	"fmt"
	"maps"

	"github.com/simonvetter/modbus"
)

// PollBlocks reads every block in `blocks` and returns a single map of parsed values keyed by
// metric name. The `scaler` is passed into any metric's scaling function.
func (c *Client) PollBlocks(scaler Scaler, blocks []MetricBlock) (map[string]interface{}, error) {
	allMetricVals := make(map[string]interface{})

	for _, block := range blocks {
		blockMetricVals, err := c.PollBlock(scaler, block)
		if err != nil {
			return nil, fmt.Errorf("poll block '%s': %w", block.Name, err)
		}
		maps.Copy(allMetricVals, blockMetricVals)
	}

	return allMetricVals, nil
}

// PollBlock reads a single block of registers and returns a map of parsed values keyed by metric
// name. The `scaler` is passed into any metric's scaling function.
func (c *Client) PollBlock(scaler Scaler, block MetricBlock) (map[string]interface{}, error) {
	err := c.reconnectIfNeccesary()
	if err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}

	registerVals, err := c.subClient.ReadRegisters(block.StartAddr, block.NumRegisters, modbus.HOLDING_REGISTER)
	if err != nil {
		c.setShouldReconnect()
		return nil, fmt.Errorf("read block: %w", err)
	}

	bytes := make([]byte, len(registerVals)*2)
	for i, registerVal := range registerVals {
		loc := i * 2
		binary.BigEndian.PutUint16(bytes[loc:loc+2], registerVal)
	}

	metricVals := make(map[string]interface{}, len(block.Metrics))
	for key, register := range block.Metrics {
		offset := (int(register.StartAddr) - int(block.StartAddr)) * 2
		if offset < 0 {
			return nil, fmt.Errorf("register configuration for `%s` preceeds block", key)
		}
		if offset+int(register.DataType.dataLength) > len(bytes) {
			return nil, fmt.Errorf("register configuration for '%s' exceeds block", key)
		}

		registerBytes := bytes[offset:(offset + int(register.DataType.dataLength))]
		metricVal := register.DataType.fromBytesFunc(registerBytes)

		if register.ScalingFunc != nil {
			metricVal = register.ScalingFunc(scaler, metricVal)
		}

		metricVals[key] = metricVal
	}

	return metricVals, nil
}
