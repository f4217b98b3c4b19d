package document

import (
	"html"
	"strings"
)

const printScript = `<script>window.addEventListener("load", function () { window.print(); });</script>`

// PrintPage wraps rendered content into a page that opens the browser print
// dialog once loaded. Full HTML documents get the script before </body>;
// fragments are wrapped in a minimal page titled title.
func PrintPage(title, content string) string {
	lower := strings.ToLower(content)
	if i := strings.LastIndex(lower, "</body>"); i >= 0 {
		return content[:i] + printScript + "\n" + content[i:]
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"fr\">\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n</head>\n<body>\n")
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(printScript)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}
