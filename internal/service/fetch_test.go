package service

import (
	"testing"

	"ImmichDrop/config"
)

func TestIdentifyPlatform(t *testing.T) {
	cases := map[string]string{
		"https://www.instagram.com/p/abc/":        "instagram",
		"https://vm.tiktok.com/ZMabc/":            "tiktok",
		"https://youtu.be/dQw4w9WgXcQ":            "youtube",
		"https://x.com/user/status/1":             "twitter",
		"https://www.reddit.com/r/pics/comments/": "reddit",
		"https://cdn.example.com/photo.jpg":       "direct",
	}
	for url, want := range cases {
		if got := IdentifyPlatform(url); got != want {
			t.Fatalf("IdentifyPlatform(%s) = %s, want %s", url, got, want)
		}
	}
}

func TestValidateDownloadSourceURLRejectsUnsafe(t *testing.T) {
	config.InitConfig()
	config.AppConfig.DownloadAllowPrivate = false
	config.AppConfig.DownloadAllowedHosts = nil

	bad := []string{
		"ftp://example.com/file.jpg",
		"http://localhost/secret",
		"http://127.0.0.1/secret",
		"http://10.0.0.5/internal.jpg",
		"http://192.168.1.1/router.png",
		"http://169.254.169.254/latest/meta-data",
		"http://intranet/share.jpg",
		"http://service.internal/x.jpg",
		"not a url at all://",
	}
	for _, url := range bad {
		if err := ValidateDownloadSourceURL(url); err == nil {
			t.Fatalf("accepted unsafe url %s", url)
		}
	}
}

func TestValidateDownloadSourceURLAllowlist(t *testing.T) {
	config.InitConfig()
	config.AppConfig.DownloadAllowPrivate = true
	config.AppConfig.DownloadAllowedHosts = []string{"example.com"}

	if err := ValidateDownloadSourceURL("https://example.com/a.jpg"); err != nil {
		t.Fatalf("allowlisted host rejected: %v", err)
	}
	if err := ValidateDownloadSourceURL("https://cdn.example.com/a.jpg"); err != nil {
		t.Fatalf("allowlisted subdomain rejected: %v", err)
	}
	if err := ValidateDownloadSourceURL("https://evil.com/a.jpg"); err == nil {
		t.Fatal("off-list host accepted")
	}
	if err := ValidateDownloadSourceURL("https://notexample.com/a.jpg"); err == nil {
		t.Fatal("suffix-confusable host accepted")
	}
}

func TestValidateDownloadSourceURLPrivateOverride(t *testing.T) {
	config.InitConfig()
	config.AppConfig.DownloadAllowPrivate = true
	config.AppConfig.DownloadAllowedHosts = nil
	if err := ValidateDownloadSourceURL("http://192.168.1.50/photo.jpg"); err != nil {
		t.Fatalf("private address rejected despite override: %v", err)
	}
}
