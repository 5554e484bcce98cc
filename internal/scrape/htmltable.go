package scrape

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/summitline/trailprep/internal/normalize"
)

// ParseListingTable extracts the first data table from an HTML document as
// header-keyed rows. The header comes from the table's <th> cells, or from
// the first row when the table has none.
func ParseListingTable(r io.Reader) ([]string, []normalize.RawRow, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, eris.Wrap(err, "scrape: parse html")
	}

	table := findFirst(doc, "table")
	if table == nil {
		return nil, nil, eris.New("scrape: document has no table")
	}

	var grid [][]string
	var headerRow []string
	walkRows(table, func(cells []string, isHeader bool) {
		if isHeader && headerRow == nil {
			headerRow = cells
			return
		}
		grid = append(grid, cells)
	})

	if headerRow == nil {
		if len(grid) == 0 {
			return nil, nil, eris.New("scrape: table has no rows")
		}
		headerRow, grid = grid[0], grid[1:]
	}

	header := make([]string, len(headerRow))
	for i, h := range headerRow {
		header[i] = normalize.CleanText(h)
	}

	rows := make([]normalize.RawRow, 0, len(grid))
	for _, cells := range grid {
		row := normalize.RawRow{}
		empty := true
		for i, col := range header {
			if col == "" {
				continue
			}
			var v string
			if i < len(cells) {
				v = normalize.CleanText(cells[i])
			}
			row[col] = v
			if v != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}

	return header, rows, nil
}

// findFirst depth-first searches for the first element with the given tag.
func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// walkRows visits each <tr> inside the table, yielding its cell texts and
// whether the row is made of <th> cells.
func walkRows(table *html.Node, visit func(cells []string, isHeader bool)) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			header := false
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode {
					continue
				}
				switch c.Data {
				case "th":
					header = true
					cells = append(cells, nodeText(c))
				case "td":
					cells = append(cells, nodeText(c))
				}
			}
			if len(cells) > 0 {
				visit(cells, header)
			}
			return
		}
		// Don't descend into nested tables.
		if n != table && n.Type == html.ElementNode && n.Data == "table" {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
}

// nodeText concatenates the text content below a node, space-separated.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
