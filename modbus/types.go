package modbus

import (
	"bytes"
	"encoding/binary"
	"math"
)

// DataType represents one of the wire encodings used by the devices this package talks to.
type DataType struct {
	name          string
	dataLength    uint16
	fromBytesFunc func([]byte) interface{}
	toBytesFunc   func(interface{}) []byte
}

// FloatType is an IEEE-754 32 bit float, big-endian.
var FloatType = DataType{
	name:       "float",
	dataLength: 4,
	fromBytesFunc: func(b []byte) interface{} {
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
	},
}

// Int32Type is a 32 bit signed integer, big-endian.
var Int32Type = DataType{
	name:       "int32",
	dataLength: 4,
	fromBytesFunc: func(b []byte) interface{} {
		return int32(binary.BigEndian.Uint32(b))
	},
	toBytesFunc: func(val interface{}) []byte {
		out := make([]byte, 4)
		binary.BigEndian.PutUint32(out, val.(uint32))
		return out
	},
}

// Uint16Type is a 16 bit unsigned integer, big-endian.
var Uint16Type = DataType{
	name:       "uint16",
	dataLength: 2,
	fromBytesFunc: func(b []byte) interface{} {
		return binary.BigEndian.Uint16(b)
	},
	toBytesFunc: func(val interface{}) []byte {
		out := make([]byte, 2)
		binary.BigEndian.PutUint16(out, val.(uint16))
		return out
	},
}

// Int16Type is a 16 bit signed integer, big-endian.
var Int16Type = DataType{
	name:       "int16",
	dataLength: 2,
	fromBytesFunc: func(b []byte) interface{} {
		return int16(binary.BigEndian.Uint16(b))
	},
	toBytesFunc: func(val interface{}) []byte {
		out := make([]byte, 2)
		binary.BigEndian.PutUint16(out, uint16(val.(int16)))
		return out
	},
}

// String32Type is a 32 byte, null-padded ASCII string.
var String32Type = DataType{
	name:       "string32",
	dataLength: 32,
	fromBytesFunc: func(b []byte) interface{} {
		return string(bytes.Trim(b, "\x00"))
	},
}

// Scaler is passed into a Metric's ScalingFunc so the caller can supply whatever context the
// scaling needs (e.g. a configured CT ratio). Most metrics need no scaling and pass nil.
type Scaler interface{}

type valueScalingFunc func(Scaler, interface{}) interface{}

// Metric describes one named value within a MetricBlock.
type Metric struct {
	StartAddr   uint16
	DataType    DataType
	ScalingFunc valueScalingFunc
}

// MetricBlock is a contiguous run of holding registers read or written in one round trip.
type MetricBlock struct {
	Name         string
	StartAddr    uint16
	NumRegisters uint16
	Metrics      map[string]Metric
}
