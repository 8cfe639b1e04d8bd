package util

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

var scoreExtensions = []string{".musicxml", ".xml"}

func IsScorePath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range scoreExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// GatherAllScorePaths walks root and returns every uncompressed MusicXML
// file below it in lexical order. maxNum of 0 means no limit.
func GatherAllScorePaths(root string, maxNum int) ([]string, error) {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %s", s)
		}
		if d.IsDir() || !IsScorePath(s) {
			return nil
		}
		if maxNum == 0 || len(res) < maxNum {
			res = append(res, s)
		}
		return nil
	}
	if err := filepath.WalkDir(root, walk); err != nil {
		return nil, err
	}
	return res, nil
}

func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func GetSortedKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := GetKeys(m)
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

func Min[A constraints.Integer](num1 A, num2 A) A {
	if num1 > num2 {
		return num2
	}
	return num1
}

func Max[A constraints.Integer](num1 A, num2 A) A {
	if num1 < num2 {
		return num2
	}
	return num1
}

func Clamp[A constraints.Integer](v, lo, hi A) A {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Gcd[A constraints.Integer](a, b A) A {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Lcm returns the least common multiple of every positive value in nums.
// Non-positive values are ignored; an empty input yields 1.
func Lcm[A constraints.Integer](nums ...A) A {
	var res A = 1
	for _, v := range nums {
		if v <= 0 {
			continue
		}
		res = res / Gcd(res, v) * v
	}
	return res
}

func Sum[A constraints.Integer](nums []A) uint64 {
	var total uint64
	for _, v := range nums {
		total += uint64(v)
	}
	return total
}
