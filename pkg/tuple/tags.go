package tuple

// Wire-format tag bytes. One leading tag per element; for integers the
// tag also carries the magnitude width. These values are part of the
// key format stored in the database and must never change.
const (
	tagNil    byte = 0x00
	tagBytes  byte = 0x01
	tagString byte = 0x02

	// tagIntZero encodes the integer zero with no payload. Negative
	// integers of b bytes use tagIntZero-b (0x13..0x0C), positive
	// integers of b bytes use tagIntZero+b (0x15..0x1C).
	tagIntZero byte = 0x14

	tagIntNeg8 byte = 0x0C
	tagIntPos8 byte = 0x1C
)
