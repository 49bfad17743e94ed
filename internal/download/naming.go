package download

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// TitleBudget is the folder title length in units: a CJK character
	// counts one unit, an ASCII letter or digit half a unit.
	TitleBudget = 6

	untitled    = "未命名"
	maxPathLen  = 260
	reservedLen = 14
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	titleMarkup  = strings.NewReplacer("#", "", "@", "", "[", "", "]", "", "【", "", "】", "")
	nameMarkup   = strings.NewReplacer("#", "", "@", "", "【", "", "】", "")
	folderUnsafe = strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
	)
)

func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fa5
}

func isASCIIAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// ShortTitle truncates title to budget units, keeping only CJK characters and
// ASCII letters and digits. An empty result becomes "未命名".
func ShortTitle(title string, budget int) string {
	clean := whitespace.ReplaceAllString(title, " ")
	clean = strings.TrimSpace(titleMarkup.Replace(clean))

	// Count in half units so ASCII characters stay integral.
	limit, used := budget*2, 0
	var b strings.Builder
	for _, r := range clean {
		if used >= limit {
			break
		}
		switch {
		case isCJK(r):
			used += 2
		case isASCIIAlnum(r):
			used++
		default:
			continue
		}
		b.WriteRune(r)
	}

	if b.Len() == 0 {
		return untitled
	}
	return b.String()
}

// FolderName is the per-item directory: "[tag]" followed by the short title.
func FolderName(tag, title string) string {
	return folderUnsafe.Replace("[" + tag + "]" + ShortTitle(title, TitleBudget))
}

// VideoFileName is fixed per platform; the title only names the folder.
func VideoFileName(tag string) string {
	return "[" + tag + "]视频文件.mp4"
}

// TextFileName names the title/author/body file written next to an image set.
func TextFileName(tag string) string {
	return "[" + tag + "]文本内容.txt"
}

// ImageFileName names the i-th (zero-based) image of a set.
func ImageFileName(i int) string {
	return fmt.Sprintf("%d.jpg", i+1)
}

// SafeFileName derives a file name from title that keeps the full path
// within 260 characters of dir, counting each CJK character as three.
func SafeFileName(title, dir, ext string) string {
	maxName := maxPathLen - utf8.RuneCountInString(dir) - reservedLen - len(ext)

	clean := whitespace.ReplaceAllString(title, " ")
	clean = folderUnsafe.Replace(clean)
	clean = strings.TrimSpace(nameMarkup.Replace(clean))

	if utf8.RuneCountInString(clean) > maxName {
		var b strings.Builder
		size := 0
		for _, r := range clean {
			n := 1
			if isCJK(r) {
				n = 3
			}
			if size+n > maxName {
				break
			}
			size += n
			b.WriteRune(r)
		}
		clean = b.String()
		if clean == "" {
			clean = "视频"
		}
	}

	if clean == "" {
		clean = fmt.Sprintf("视频_%d", time.Now().UnixMilli())
	}
	return clean + ext
}
