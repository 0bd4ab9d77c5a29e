package bundle

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	shotsDir = "assets/shots"
	musicDir = "assets/music"

	musicExt = ".m4a"
)

// ShotImagePath is the bundle-relative path of a shot's key frame.
func ShotImagePath(nodeID string, shotIndex int, source string) string {
	return fmt.Sprintf("%s/%s/%d_key_frame%s", shotsDir, nodeID, shotIndex, extOr(source, ".png"))
}

// ShotAudioPath is the bundle-relative path of a shot's narration audio.
func ShotAudioPath(nodeID string, shotIndex int, source string) string {
	return fmt.Sprintf("%s/%s/%d_audio%s", shotsDir, nodeID, shotIndex, extOr(source, ".wav"))
}

// BranchAudioPath is the bundle-relative path of a branch node's preview audio.
func BranchAudioPath(nodeID, source string) string {
	return fmt.Sprintf("%s/%s/branch_audio%s", shotsDir, nodeID, extOr(source, ".wav"))
}

// MusicPath is the bundle-relative path of a music cue's track.
func MusicPath(cueName string) string {
	return musicDir + "/" + SanitizeCueName(cueName) + musicExt
}

func extOr(source, fallback string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(source, `\`, "/")))
	if ext == "" || ext == "." {
		return fallback
	}
	return ext
}

// SanitizeCueName makes a cue name safe as a file name: filesystem-hostile
// characters become "-", whitespace runs collapse to one space, and leading or
// trailing separators are trimmed. An empty result becomes "cue".
func SanitizeCueName(name string) string {
	var b strings.Builder
	for _, r := range norm.NFC.String(name) {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.IsControl(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	out = strings.Trim(out, "-. ")
	if out == "" {
		return "cue"
	}
	return out
}
