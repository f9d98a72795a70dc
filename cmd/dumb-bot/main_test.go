package main

import "testing"

func TestCredentialIsSHA256Hex(t *testing.T) {
	got := credential("password")
	want := "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"
	if got != want {
		t.Fatalf("credential = %s, want %s", got, want)
	}
}
