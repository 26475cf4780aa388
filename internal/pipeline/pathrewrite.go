package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteRelativePaths rebases relative img[src] and a[href] values found in
// htmlContent, which were written relative to sourceDir. With an empty
// targetDir they become absolute file:// URLs. Otherwise they become paths
// relative to targetDir, so the HTML can be written there and still resolve.
// Query strings and fragments are kept.
//
// Left alone: URLs with a scheme or host, anchors, absolute paths, and paths
// that climb out of sourceDir. An empty sourceDir returns htmlContent as is.
func RewriteRelativePaths(htmlContent, sourceDir, targetDir string) (string, error) {
	if sourceDir == "" {
		return htmlContent, nil
	}

	src, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", err
	}
	var dst string
	if targetDir != "" {
		if dst, err = filepath.Abs(targetDir); err != nil {
			return "", err
		}
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	walk(doc, func(n *html.Node) {
		switch n.DataAtom {
		case atom.Img:
			rebaseAttr(n, "src", src, dst)
		case atom.A:
			rebaseAttr(n, "href", src, dst)
		}
	})

	return renderHTML(doc, isFragment)
}

// parseHTML parses a full document or, failing the <!doctype / <html
// prefix, a body fragment. Fragments come back under a DocumentNode.
func parseHTML(content string) (*html.Node, bool, error) {
	head := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, true, nil
}

// renderHTML renders doc, or only its children for a fragment.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder
	if !isFragment {
		err := html.Render(&buf, doc)
		return buf.String(), err
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func rebaseAttr(n *html.Node, key, sourceDir, targetDir string) {
	for i, attr := range n.Attr {
		if attr.Key != key {
			continue
		}
		if rebased, ok := rebase(attr.Val, sourceDir, targetDir); ok {
			n.Attr[i].Val = rebased
		}
	}
}

// rebase returns the rewritten reference and whether ref was rewritable.
func rebase(ref, sourceDir, targetDir string) (string, bool) {
	if !isRelativePath(ref) {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Path == "" {
		return "", false
	}

	abs := filepath.Join(sourceDir, filepath.FromSlash(u.Path))
	if !isPathUnderDir(abs, sourceDir) {
		return "", false
	}

	out := url.URL{RawQuery: u.RawQuery, Fragment: u.Fragment}
	if targetDir == "" {
		out.Scheme = "file"
		out.Path = filepath.ToSlash(abs)
		if !strings.HasPrefix(out.Path, "/") {
			out.Path = "/" + out.Path // drive letter
		}
		return out.String(), true
	}

	rel, err := filepath.Rel(targetDir, abs)
	if err != nil {
		return "", false
	}
	out.Path = filepath.ToSlash(rel)
	return out.String(), true
}

// isRelativePath reports whether ref names a local, relative file.
func isRelativePath(ref string) bool {
	switch {
	case ref == "",
		strings.HasPrefix(ref, "#"),
		strings.HasPrefix(ref, "//"),
		strings.HasPrefix(ref, "data:"),
		strings.Contains(ref, "://"),
		strings.HasPrefix(ref, "mailto:"),
		filepath.IsAbs(ref),
		strings.HasPrefix(ref, "/"):
		return false
	}
	return true
}

// isPathUnderDir reports whether path is dir or lies below it.
func isPathUnderDir(path, dir string) bool {
	cleanDir := filepath.Clean(dir) + string(filepath.Separator)
	return strings.HasPrefix(filepath.Clean(path)+string(filepath.Separator), cleanDir)
}
