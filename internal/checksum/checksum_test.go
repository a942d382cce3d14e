package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256 of the empty input is a fixed vector.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("distinct inputs collided")
	}
	if Sum([]byte("same")) != Sum([]byte("same")) {
		t.Error("Sum is not deterministic")
	}
}

func TestETagQuoted(t *testing.T) {
	got := ETag([]byte("content"))
	if got != `"`+Sum([]byte("content"))+`"` {
		t.Errorf("ETag = %s", got)
	}
}
