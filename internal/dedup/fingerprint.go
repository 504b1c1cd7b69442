package dedup

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/internpipe/internpipe/internal/model"
)

// maxDescriptionRunes bounds the hash input so pathological descriptions
// cannot blow up hashing cost.
const maxDescriptionRunes = 500

// Fingerprint derives a deterministic content hash from a job's identifying
// fields. Each field is normalized independently, so two postings that differ
// only in casing, punctuation, or unrelated fields produce the same token.
func Fingerprint(job model.Job) string {
	title := Normalize(job.Title)
	company := Normalize(job.Company)
	location := Normalize(job.Location)

	desc := Normalize(job.Description)
	if runes := []rune(desc); len(runes) > maxDescriptionRunes {
		desc = string(runes[:maxDescriptionRunes])
	}

	sum := md5.Sum([]byte(title + "|" + company + "|" + location + "|" + desc))
	return hex.EncodeToString(sum[:])
}
