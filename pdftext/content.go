package pdftext

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
)

// extractContent reads each page's content stream through pdfcpu and keeps
// the operands of the text showing operators. Glyphs are taken as single
// byte codes, which is right for the standard and WinAnsi encodings.
func extractContent(data []byte) (Document, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return Document{}, errors.Wrap(err, "pdfcpu read")
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return Document{}, errors.Wrap(err, "pdfcpu page count")
	}

	doc := Document{PageCount: ctx.PageCount}
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		text := showText(content)
		if strings.TrimSpace(text) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, text)
	}
	if len(doc.Pages) == 0 {
		return doc, ErrNoText
	}
	return doc, nil
}

// showText walks a content stream and returns the strings drawn by Tj, TJ,
// ' and ". Line operators start a new line.
func showText(content []byte) string {
	var (
		sb      strings.Builder
		pending []string
		inArray bool
	)
	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}

	for i := 0; i < len(content); {
		c := content[i]
		switch {
		case isSpace(c):
			i++
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '(':
			s, n := literalString(content[i:])
			pending = append(pending, s)
			i += n
		case c == '<' && i+1 < len(content) && content[i+1] == '<':
			// inline dictionaries carry no text
			end := bytes.Index(content[i:], []byte(">>"))
			if end < 0 {
				return sb.String()
			}
			i += end + 2
		case c == '<':
			s, n := hexString(content[i:])
			pending = append(pending, s)
			i += n
		case c == '/':
			i++
			for i < len(content) && !isSpace(content[i]) && !isDelim(content[i]) {
				i++
			}
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		default:
			j := i
			for j < len(content) && !isSpace(content[j]) && !isDelim(content[j]) {
				j++
			}
			if j == i {
				i++
				continue
			}
			tok := string(content[i:j])
			i = j

			if inArray {
				// a large negative TJ adjustment is an inter-word gap
				if f, err := strconv.ParseFloat(tok, 64); err == nil && f < -200 {
					pending = append(pending, " ")
				}
				continue
			}
			switch tok {
			case "Tj", "TJ":
				sb.WriteString(strings.Join(pending, ""))
			case "'", `"`:
				newline()
				sb.WriteString(strings.Join(pending, ""))
			case "T*", "Td", "TD", "Tm", "ET":
				newline()
			case "BI":
				// skip inline image data up to EI
				end := bytes.Index(content[i:], []byte("EI"))
				if end < 0 {
					return sb.String()
				}
				i += end + 2
			}
			if _, err := strconv.ParseFloat(tok, 64); err != nil {
				pending = pending[:0]
			}
		}
	}
	return sb.String()
}

func literalString(b []byte) (string, int) {
	var out []rune
	depth := 0
	i := 0
	for i < len(b) {
		c := b[i]
		switch {
		case c == '\\' && i+1 < len(b):
			i++
			switch e := b[i]; e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b', 'f':
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := 0
					k := 0
					for k < 3 && i < len(b) && b[i] >= '0' && b[i] <= '7' {
						v = v*8 + int(b[i]-'0')
						i++
						k++
					}
					out = append(out, rune(byte(v)))
					continue
				}
				out = append(out, rune(e))
			}
			i++
			continue
		case c == '(':
			depth++
			if depth > 1 {
				out = append(out, '(')
			}
		case c == ')':
			depth--
			if depth == 0 {
				return string(out), i + 1
			}
			out = append(out, ')')
		default:
			out = append(out, rune(c))
		}
		i++
	}
	return string(out), len(b)
}

func hexString(b []byte) (string, int) {
	end := bytes.IndexByte(b, '>')
	if end < 0 {
		return "", len(b)
	}
	var digits []byte
	for _, c := range b[1:end] {
		if !isSpace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]rune, 0, len(digits)/2)
	for k := 0; k+1 < len(digits); k += 2 {
		v, err := strconv.ParseUint(string(digits[k:k+2]), 16, 8)
		if err != nil {
			break
		}
		out = append(out, rune(byte(v)))
	}
	return string(out), end + 1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}
