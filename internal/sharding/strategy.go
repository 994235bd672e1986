package sharding

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"
)

// Granularity controls the calendar unit of a time-based shard suffix.
type Granularity string

const (
	GranularityYear  Granularity = "year"
	GranularityMonth Granularity = "month"
	GranularityDay   Granularity = "day"
)

// HashAlgo selects the digest used by the hash-based strategy.
type HashAlgo string

const (
	HashMD5    HashAlgo = "md5"
	HashSHA1   HashAlgo = "sha1"
	HashSHA256 HashAlgo = "sha256"
)

// Strategy maps a sharding-key value to a physical table suffix. Range
// enumeration is only meaningful for time-based sharding; the other
// strategies fan out to every bucket.
type Strategy interface {
	KeyColumn() string
	Suffix(key interface{}) (string, error)
	// RangeSuffixes enumerates every shard that can hold keys in [start, end].
	// Argument order does not matter; the result is sorted ascending.
	RangeSuffixes(start, end interface{}) ([]string, error)
	SupportsRange() bool
}

// TimeBasedStrategy shards by calendar unit: YYYY, YYYYMM or YYYYMMDD.
type TimeBasedStrategy struct {
	column      string
	granularity Granularity
}

func NewTimeBasedStrategy(column string, granularity Granularity) *TimeBasedStrategy {
	return &TimeBasedStrategy{column: column, granularity: granularity}
}

func (s *TimeBasedStrategy) KeyColumn() string { return s.column }

func (s *TimeBasedStrategy) SupportsRange() bool { return true }

func (s *TimeBasedStrategy) Suffix(key interface{}) (string, error) {
	t, err := asTime(key)
	if err != nil {
		return "", err
	}
	switch s.granularity {
	case GranularityYear:
		return t.Format("2006"), nil
	case GranularityMonth:
		return t.Format("200601"), nil
	case GranularityDay:
		return t.Format("20060102"), nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s.granularity)
	}
}

func (s *TimeBasedStrategy) RangeSuffixes(start, end interface{}) ([]string, error) {
	t0, err := asTime(start)
	if err != nil {
		return nil, err
	}
	t1, err := asTime(end)
	if err != nil {
		return nil, err
	}
	if t1.Before(t0) {
		t0, t1 = t1, t0
	}

	var suffixes []string
	switch s.granularity {
	case GranularityYear:
		for y := t0.Year(); y <= t1.Year(); y++ {
			suffixes = append(suffixes, strconv.Itoa(y))
		}
	case GranularityMonth:
		cur := time.Date(t0.Year(), t0.Month(), 1, 0, 0, 0, 0, t0.Location())
		last := time.Date(t1.Year(), t1.Month(), 1, 0, 0, 0, 0, t1.Location())
		for !cur.After(last) {
			suffixes = append(suffixes, cur.Format("200601"))
			cur = cur.AddDate(0, 1, 0)
		}
	case GranularityDay:
		cur := time.Date(t0.Year(), t0.Month(), t0.Day(), 0, 0, 0, 0, t0.Location())
		last := time.Date(t1.Year(), t1.Month(), t1.Day(), 0, 0, 0, 0, t1.Location())
		for !cur.After(last) {
			suffixes = append(suffixes, cur.Format("20060102"))
			cur = cur.AddDate(0, 0, 1)
		}
	default:
		return nil, fmt.Errorf("unknown granularity %q", s.granularity)
	}
	return suffixes, nil
}

// IdBasedStrategy shards by value modulo a fixed bucket count. Range queries
// cannot be narrowed and fan out to every bucket.
type IdBasedStrategy struct {
	column  string
	buckets int
}

func NewIdBasedStrategy(column string, buckets int) *IdBasedStrategy {
	if buckets < 1 {
		buckets = 1
	}
	return &IdBasedStrategy{column: column, buckets: buckets}
}

func (s *IdBasedStrategy) KeyColumn() string { return s.column }

func (s *IdBasedStrategy) SupportsRange() bool { return false }

func (s *IdBasedStrategy) Suffix(key interface{}) (string, error) {
	v, err := asInt64(key)
	if err != nil {
		return "", err
	}
	bucket := v % int64(s.buckets)
	if bucket < 0 {
		bucket += int64(s.buckets)
	}
	return strconv.FormatInt(bucket, 10), nil
}

func (s *IdBasedStrategy) RangeSuffixes(_, _ interface{}) ([]string, error) {
	return allBuckets(s.buckets), nil
}

// HashBasedStrategy shards by a digest of the key's string form.
type HashBasedStrategy struct {
	column  string
	buckets int
	algo    HashAlgo
}

func NewHashBasedStrategy(column string, buckets int, algo HashAlgo) *HashBasedStrategy {
	if buckets < 1 {
		buckets = 1
	}
	return &HashBasedStrategy{column: column, buckets: buckets, algo: algo}
}

func (s *HashBasedStrategy) KeyColumn() string { return s.column }

func (s *HashBasedStrategy) SupportsRange() bool { return false }

func (s *HashBasedStrategy) Suffix(key interface{}) (string, error) {
	var digest []byte
	data := []byte(fmt.Sprintf("%v", key))
	switch s.algo {
	case HashMD5:
		d := md5.Sum(data)
		digest = d[:]
	case HashSHA1:
		d := sha1.Sum(data)
		digest = d[:]
	case HashSHA256:
		d := sha256.Sum256(data)
		digest = d[:]
	default:
		return "", fmt.Errorf("unknown hash algo %q", s.algo)
	}
	bucket := binary.BigEndian.Uint64(digest[:8]) % uint64(s.buckets)
	return strconv.FormatUint(bucket, 10), nil
}

func (s *HashBasedStrategy) RangeSuffixes(_, _ interface{}) ([]string, error) {
	return allBuckets(s.buckets), nil
}

func allBuckets(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

func asTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("nil time sharding key")
		}
		return *t, nil
	case string:
		parsed, err := time.Parse("2006-01-02", t)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date sharding key %q: %w", t, err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported time sharding key type %T", v)
	}
}

func asInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid numeric sharding key %q: %w", n, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported numeric sharding key type %T", v)
	}
}
