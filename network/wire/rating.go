package wire

// RatingHeaderSize is the size of the rating packet header that follows
// the opcode: subject id, leaderboard length, subject position.
const RatingHeaderSize = 12

// RatingHeaderOffset is where the header sits inside a rating frame
// (after the length prefix and the opcode byte).
const RatingHeaderOffset = FrameLenSize + 1

// RatingEntry is one leaderboard row inside a rating packet.
type RatingEntry struct {
	UserID   int32
	Winnings int64
	Name     string
}

// RatingPacket is a decoded OpUserRating packet. Entries are ordered by
// leaderboard position ascending: the top prefix first, then the
// competition window around the subject when the subject sits below the
// top prefix.
type RatingPacket struct {
	SubjectID int32
	Length    int32
	Position  int32
	Entries   []RatingEntry
}

// PutRatingHeader appends the fixed rating header to w.
func PutRatingHeader(w *Writer, subject int32, length, position int) {
	w.PutI32(subject)
	w.PutI32(int32(length))
	w.PutI32(int32(position))
}

// PatchRatingHeader rewrites the header of an assembled rating frame in
// place. Used by workers that cache the top prefix and only re-stamp the
// subject per job.
func PatchRatingHeader(w *Writer, subject int32, length, position int) {
	w.PatchI32(RatingHeaderOffset, subject)
	w.PatchI32(RatingHeaderOffset+4, int32(length))
	w.PatchI32(RatingHeaderOffset+8, int32(position))
}

// PutRatingEntry appends one leaderboard row to w.
func PutRatingEntry(w *Writer, id int32, winnings int64, name string) {
	w.PutI32(id)
	w.PutI64(winnings)
	w.PutString(name)
}

// DecodeRatingPacket parses an OpUserRating payload (after the opcode),
// reading entries until the payload is exhausted.
func DecodeRatingPacket(payload []byte) (*RatingPacket, error) {
	r := NewReader(payload)
	p := &RatingPacket{
		SubjectID: r.I32(),
		Length:    r.I32(),
		Position:  r.I32(),
	}
	for r.Err() == nil && r.Remaining() > 0 {
		e := RatingEntry{
			UserID:   r.I32(),
			Winnings: r.I64(),
			Name:     r.String(),
		}
		if r.Err() != nil {
			break
		}
		p.Entries = append(p.Entries, e)
	}
	return p, r.Err()
}
