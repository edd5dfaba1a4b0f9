package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

// Record layout v1, big-endian:
//
//	version(1) idLen(1) id userLen(1) userID uaLen(2) userAgent
//	createdAt(8, unix seconds) expiresAt(8, unix seconds)
const recordVersionV1 = 1

var errCorruptRecord = errors.New("corrupt session record")

// Encode serializes a session into the compact binary record stored in
// Redis. IDs are limited to 255 bytes and the user-agent label to 64 KB.
func Encode(s *Session) ([]byte, error) {
	if len(s.ID) == 0 || len(s.ID) > 255 {
		return nil, errors.New("invalid session id length")
	}
	if len(s.UserID) == 0 || len(s.UserID) > 255 {
		return nil, errors.New("invalid user id length")
	}
	if len(s.UserAgent) > 65535 {
		return nil, errors.New("user agent too long")
	}

	var buf bytes.Buffer
	buf.WriteByte(recordVersionV1)
	buf.WriteByte(byte(len(s.ID)))
	buf.WriteString(s.ID)
	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(s.UserAgent)))
	buf.WriteString(s.UserAgent)
	_ = binary.Write(&buf, binary.BigEndian, s.CreatedAt.Unix())
	_ = binary.Write(&buf, binary.BigEndian, s.ExpiresAt.Unix())

	return buf.Bytes(), nil
}

// Decode parses a binary record produced by Encode.
func Decode(data []byte) (*Session, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil || version != recordVersionV1 {
		return nil, errCorruptRecord
	}

	id, err := readString8(r)
	if err != nil {
		return nil, errCorruptRecord
	}
	userID, err := readString8(r)
	if err != nil {
		return nil, errCorruptRecord
	}

	var uaLen uint16
	if err := binary.Read(r, binary.BigEndian, &uaLen); err != nil {
		return nil, errCorruptRecord
	}
	ua := make([]byte, uaLen)
	if _, err := io.ReadFull(r, ua); err != nil {
		return nil, errCorruptRecord
	}

	var createdAt, expiresAt int64
	if err := binary.Read(r, binary.BigEndian, &createdAt); err != nil {
		return nil, errCorruptRecord
	}
	if err := binary.Read(r, binary.BigEndian, &expiresAt); err != nil {
		return nil, errCorruptRecord
	}
	if r.Len() != 0 {
		return nil, errCorruptRecord
	}

	return &Session{
		ID:        id,
		UserID:    userID,
		UserAgent: string(ua),
		CreatedAt: time.Unix(createdAt, 0).UTC(),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
	}, nil
}

func readString8(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil || n == 0 {
		return "", errCorruptRecord
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
