package recovery

import (
	"encoding/binary"
	"fmt"
)

// ClassMagic is the marker every compiled class file starts with.
const ClassMagic uint32 = 0xCAFEBABE

// ClassHeader is the fixed-size prefix of a compiled class file.
type ClassHeader struct {
	Magic             uint32
	Minor             uint16
	Major             uint16
	ConstantPoolCount uint16
	Size              int
}

// ParseClassHeader validates the magic number and reads the version fields.
func ParseClassHeader(data []byte) (*ClassHeader, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("class file too short: %d bytes", len(data))
	}
	magic := binary.BigEndian.Uint32(data[0:4])
	if magic != ClassMagic {
		return nil, fmt.Errorf("invalid class file magic 0x%x", magic)
	}
	return &ClassHeader{
		Magic:             magic,
		Minor:             binary.BigEndian.Uint16(data[4:6]),
		Major:             binary.BigEndian.Uint16(data[6:8]),
		ConstantPoolCount: binary.BigEndian.Uint16(data[8:10]),
		Size:              len(data),
	}, nil
}

// PlatformLabel returns the platform label of the class header.
func (h *ClassHeader) PlatformLabel() string {
	return VersionLabel(h.Major)
}

var legacyLabels = map[uint16]string{
	45: "Java 1.1",
	46: "Java 1.2",
	47: "Java 1.3",
	48: "Java 1.4",
}

// VersionLabel maps a class file major version onto a platform label:
// 45..48 are "Java 1.x", 49 and above are "Java <major-44>".
func VersionLabel(major uint16) string {
	if label, ok := legacyLabels[major]; ok {
		return label
	}
	return fmt.Sprintf("Java %d", int(major)-44)
}
