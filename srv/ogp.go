package srv

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"nihongo.exe.dev/game"
)

// HandleOGPImage generates an SVG preview card for a finished game.
func (s *Server) HandleOGPImage(w http.ResponseWriter, r *http.Request) {
	sum, err := s.loadResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write([]byte(renderOGP(sum)))
}

func renderOGP(sum game.Summary) string {
	words := make([]string, len(sum.History))
	for i, h := range sum.History {
		words[i] = h.Word
	}
	chainLines := wrapChain(words, 16, 4)

	var scoreSVG strings.Builder
	for i, row := range scoreRows(sum.Scores) {
		if i >= 4 {
			break
		}
		y := 130 + i*36
		bg := "#f1f0fb"
		if i == 0 {
			bg = "#fef3c7"
		}
		fmt.Fprintf(&scoreSVG,
			`<rect x="40" y="%d" width="250" height="30" rx="6" fill="%s"/>`+
				`<text x="56" y="%d" font-size="16">%s</text>`+
				`<text x="82" y="%d" font-size="15" font-weight="600" fill="#1e1b4b">%s</text>`+
				`<text x="270" y="%d" text-anchor="end" font-size="15" font-weight="700" fill="#bc002d">%d</text>`,
			y, bg,
			y+21, svgEsc(row.Rank),
			y+21, svgEsc(row.Name),
			y+21, row.Score,
		)
	}

	var chainSVG strings.Builder
	for i, line := range chainLines {
		fmt.Fprintf(&chainSVG,
			`<text x="480" y="%d" text-anchor="middle" font-size="15" fill="#8f0022" font-weight="500">%s</text>`,
			145+i*28, svgEsc(line),
		)
	}

	chainLabel := "しりとりチェーン"
	if sum.Game == game.KindWordBomb {
		chainLabel = "Word Bomb"
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="1200" height="630" viewBox="0 0 640 330">
  <defs>
    <linearGradient id="bg" x1="0" y1="0" x2="1" y2="1">
      <stop offset="0%%" stop-color="#bc002d"/>
      <stop offset="100%%" stop-color="#e0566f"/>
    </linearGradient>
  </defs>
  <rect width="640" height="330" fill="url(#bg)"/>
  <rect x="16" y="16" width="608" height="298" rx="16" fill="white" opacity="0.97"/>
  <text x="320" y="60" text-anchor="middle" font-size="22" font-weight="900" fill="#1e1b4b" font-family="sans-serif">🎌 %s</text>
  <line x1="320" y1="90" x2="320" y2="290" stroke="#e5e7eb" stroke-width="1" stroke-dasharray="4,4"/>
  <text x="165" y="118" text-anchor="middle" font-size="14" font-weight="700" fill="#6b7280" font-family="sans-serif">Scores</text>
  %s
  <text x="480" y="118" text-anchor="middle" font-size="14" font-weight="700" fill="#6b7280" font-family="sans-serif">%s</text>
  %s
  <text x="320" y="310" text-anchor="middle" font-size="12" fill="#e0566f" font-family="sans-serif">nihongo</text>
</svg>`,
		svgEsc(resultTitle(sum)), scoreSVG.String(), chainLabel, chainSVG.String())
}

func svgEsc(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

// wrapChain breaks a word chain into lines of about maxPerLine runes.
func wrapChain(words []string, maxPerLine int, maxLines int) []string {
	if len(words) == 0 {
		return []string{"（なし）"}
	}

	var lines []string
	var current []string
	currentLen := 0

	for i, w := range words {
		sep := ""
		if i > 0 {
			sep = " → "
		}
		addLen := len([]rune(sep)) + len([]rune(w))
		if currentLen > 0 && currentLen+addLen > maxPerLine {
			lines = append(lines, strings.Join(current, " → "))
			current = []string{w}
			currentLen = len([]rune(w))
		} else {
			current = append(current, w)
			currentLen += addLen
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " → "))
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] += " …"
	}
	return lines
}
