package chain_test

import (
	"strings"
	"testing"

	"kinetic/internal/services/chain"
)

func TestSelectorMatchesKnownSignatures(t *testing.T) {
	cases := []struct {
		signature string
		selector  string
	}{
		{"transfer(address,uint256)", "a9059cbb"},
		{"totalSupply()", "18160ddd"},
		{"balanceOf(address)", "70a08231"},
	}
	for _, tc := range cases {
		got := chain.EncodeCall(tc.signature)
		if !strings.HasPrefix(got, "0x"+tc.selector) {
			t.Errorf("Selector(%s) = %s, want prefix 0x%s", tc.signature, got, tc.selector)
		}
	}
}

func TestEventTopicMatchesTransfer(t *testing.T) {
	const transferTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	if got := chain.EventTopic("Transfer(address,address,uint256)"); got != transferTopic {
		t.Fatalf("EventTopic = %s, want %s", got, transferTopic)
	}
}

func TestEncodeCallStaticArgs(t *testing.T) {
	got := chain.EncodeCall("balanceOf(address)", chain.Address("0x00000000000000000000000000000000000000aa"))
	want := "0x70a08231" + strings.Repeat("0", 62) + "aa"
	if got != want {
		t.Fatalf("EncodeCall = %s, want %s", got, want)
	}
}

func TestEncodeCallDynamicString(t *testing.T) {
	got := chain.EncodeCall("log(string)", chain.String("hi"))
	// selector, offset 0x20, length 2, "hi" padded to a word
	want := "0x41304fac" +
		strings.Repeat("0", 62) + "20" +
		strings.Repeat("0", 63) + "2" +
		"6869" + strings.Repeat("0", 60)
	if got != want {
		t.Fatalf("EncodeCall = %s, want %s", got, want)
	}
}

func TestEncodeCallMixedArgsOffsets(t *testing.T) {
	got := chain.EncodeCall("f(uint256,string)", chain.Uint64(7), chain.String("abc"))
	body := strings.TrimPrefix(got, "0x")[8:]
	words := make([]string, 0, len(body)/64)
	for i := 0; i+64 <= len(body); i += 64 {
		words = append(words, body[i:i+64])
	}
	if len(words) != 4 {
		t.Fatalf("expected 4 words, got %d", len(words))
	}
	if !strings.HasSuffix(words[0], "7") {
		t.Fatalf("expected first word to hold 7, got %s", words[0])
	}
	// offset to the dynamic tail is two head words, 0x40 bytes
	if !strings.HasSuffix(words[1], "40") {
		t.Fatalf("expected offset word 0x40, got %s", words[1])
	}
	if !strings.HasSuffix(words[2], "3") {
		t.Fatalf("expected string length 3, got %s", words[2])
	}
	if !strings.HasPrefix(words[3], "616263") {
		t.Fatalf("expected string bytes, got %s", words[3])
	}
}

func TestDecodeUint64(t *testing.T) {
	if got, err := chain.DecodeUint64("0x000000000000000000000000000000000000000000000000000000000000002a"); err != nil || got != 42 {
		t.Fatalf("DecodeUint64 = %d, %v", got, err)
	}
	if got, err := chain.DecodeUint64("0x0"); err != nil || got != 0 {
		t.Fatalf("DecodeUint64 zero = %d, %v", got, err)
	}
	if _, err := chain.DecodeUint64("0x01000000000000000000000000000000000000000000000000ffffffffffffffff"); err == nil {
		t.Fatal("expected overflow error")
	}
	if got, err := chain.DecodeUint64("0x00000000000000000000000000000000000000000000000000000000000000000000002a"); err != nil || got != 42 {
		t.Fatalf("DecodeUint64 zero-padded = %d, %v", got, err)
	}
	if _, err := chain.DecodeUint64(""); err == nil {
		t.Fatal("expected error for empty value")
	}
}

func TestDecodeAddress(t *testing.T) {
	word := "0x000000000000000000000000ABCDEF00000000000000000000000000000000FF"
	got, err := chain.DecodeAddress(word)
	if err != nil {
		t.Fatalf("DecodeAddress failed: %v", err)
	}
	if got != "0xabcdef00000000000000000000000000000000ff" {
		t.Fatalf("DecodeAddress = %s", got)
	}
	if _, err := chain.DecodeAddress("0x1234"); err == nil {
		t.Fatal("expected error for short value")
	}
}
