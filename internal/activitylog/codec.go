package activitylog

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"time"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// Blob layout, little-endian:
//
//	header  8 bytes: "ALOG", version u8, capacity u8, 2 reserved
//	records Capacity x 32 bytes:
//	        id u64, time i64 (unix micro), sensor u64, type u8, 3 reserved, crc32 u32
//
// The CRC covers the first 28 bytes of a record. A record failing the CRC or
// carrying an unknown type reads back as an empty slot.
const (
	headerSize  = 8
	recordSize  = 32
	crcOffset   = recordSize - 4
	blobVersion = 1

	// BlobSize is the exact size of a persisted activity log.
	BlobSize = headerSize + Capacity*recordSize
)

// blobMagic opens every persisted activity log.
var blobMagic = [4]byte{'A', 'L', 'O', 'G'}

// errBadHeader is returned for blobs of another size, magic, version or capacity.
var errBadHeader = errors.New("activity log header mismatch")

// entry is one slot of the ring.
type entry struct {
	id        uint64
	time      time.Time
	eventType domain.EventType
	sensorID  domain.SensorID
}

// empty tells whether the slot was never written or did not survive decoding.
func (e *entry) empty() bool {
	return e.eventType == domain.EventNone
}

// event converts the slot to its public form.
func (e *entry) event() domain.Event {
	return domain.Event{
		ID:       e.id,
		Time:     e.time,
		Type:     e.eventType,
		SensorID: e.sensorID,
	}
}

// encodeBlob renders the ring slots in physical order.
func encodeBlob(entries *[Capacity]entry) []byte {
	blob := make([]byte, BlobSize)

	copy(blob[0:4], blobMagic[:])
	blob[4] = blobVersion
	blob[5] = Capacity

	for i := range entries {
		if entries[i].empty() {
			continue
		}

		encodeRecord(blob[headerSize+i*recordSize:headerSize+(i+1)*recordSize], &entries[i])
	}

	return blob
}

// encodeRecord writes one slot into a recordSize buffer.
func encodeRecord(buf []byte, e *entry) {
	binary.LittleEndian.PutUint64(buf[0:8], e.id)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.time.UnixMicro())) //nolint:gosec // Round-trips through int64.
	binary.LittleEndian.PutUint64(buf[16:24], uint64(e.sensorID))
	buf[24] = byte(e.eventType)
	binary.LittleEndian.PutUint32(buf[crcOffset:], crc32.ChecksumIEEE(buf[:crcOffset]))
}

// decodeBlob parses a persisted blob. Corrupt records become empty slots.
func decodeBlob(blob []byte) ([Capacity]entry, error) {
	var entries [Capacity]entry

	if len(blob) != BlobSize ||
		[4]byte(blob[0:4]) != blobMagic ||
		blob[4] != blobVersion ||
		blob[5] != Capacity {
		return entries, errBadHeader
	}

	for i := range entries {
		entries[i] = decodeRecord(blob[headerSize+i*recordSize : headerSize+(i+1)*recordSize])
	}

	return entries, nil
}

// decodeRecord parses one slot, returning an empty entry when it does not check out.
func decodeRecord(buf []byte) entry {
	if binary.LittleEndian.Uint32(buf[crcOffset:]) != crc32.ChecksumIEEE(buf[:crcOffset]) {
		return entry{}
	}

	eventType := domain.EventType(buf[24])
	if !eventType.Valid() {
		return entry{}
	}

	return entry{
		id:        binary.LittleEndian.Uint64(buf[0:8]),
		time:      time.UnixMicro(int64(binary.LittleEndian.Uint64(buf[8:16]))), //nolint:gosec // Round-trips through int64.
		eventType: eventType,
		sensorID:  domain.SensorID(binary.LittleEndian.Uint64(buf[16:24])),
	}
}
