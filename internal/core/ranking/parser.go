package ranking

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ResponseFormatVersion 排名服務回應格式版本。
//
// v1：每間餐廳兩行，可夾雜其他文字與 markdown：
//
//	<餐廳名稱>: <NN>%
//	Top3: <菜色>, <菜色>, <菜色>
const ResponseFormatVersion = "v1"

// ErrUnparseableResponse 回應中找不到任何餐廳區塊
var ErrUnparseableResponse = errors.New("ranking response contains no parsable hall blocks")

// MatchBlock 一間餐廳的解析結果
type MatchBlock struct {
	Label    string
	Percent  int
	TopPicks []string
}

const maxLabelLength = 80

var (
	percentLine = regexp.MustCompile(`^(.+?)\s*[:：]\s*\(?\s*(\d{1,3}(?:\.\d+)?)\s*%`)
	topLine     = regexp.MustCompile(`(?i)^top\s*-?\s*3\s*(?:picks|items|dishes)?\s*[:：]\s*(.*)$`)
	listPrefix  = regexp.MustCompile(`^(?:[-*•>]+|\d+[.)])\s*`)
)

// ParseResponse 依 v1 格式解析自由文字回應。accept 不為 nil 時只接受它認得的標籤；
// 其他含百分比的說明文字不會成為區塊，也不會搶走前一間餐廳的 Top3
func ParseResponse(text string, accept func(label string) bool) ([]MatchBlock, error) {
	blocks := make([]MatchBlock, 0)
	seen := make(map[string]bool)
	current := -1

	for _, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		if line == "" {
			continue
		}

		if m := topLine.FindStringSubmatch(line); m != nil {
			if current >= 0 && blocks[current].TopPicks == nil {
				blocks[current].TopPicks = splitPicks(m[1])
			}
			continue
		}

		m := percentLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label := strings.TrimSpace(m[1])
		if label == "" || len(label) > maxLabelLength {
			continue
		}
		f, err := strconv.ParseFloat(m[2], 64)
		if err != nil || f > 100 {
			continue
		}
		if accept != nil && !accept(label) {
			continue
		}

		key := strings.ToLower(label)
		if seen[key] {
			// 同一餐廳重複出現時以第一次為準
			current = -1
			continue
		}
		seen[key] = true
		blocks = append(blocks, MatchBlock{Label: label, Percent: int(math.Round(f))})
		current = len(blocks) - 1
	}

	if len(blocks) == 0 {
		return nil, ErrUnparseableResponse
	}
	return blocks, nil
}

// cleanLine 去除 markdown 強調、標題與清單符號
func cleanLine(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
	s = strings.TrimLeft(s, "# ")
	s = listPrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func splitPicks(s string) []string {
	picks := make([]string, 0, 3)
	for _, p := range strings.Split(s, ",") {
		p = strings.Trim(strings.TrimSpace(p), `."'`)
		if p == "" {
			continue
		}
		picks = append(picks, p)
		if len(picks) == 3 {
			break
		}
	}
	return picks
}
