// Package dom provides the in-memory element host that blocks render into.
//
// A Document creates element and text nodes. Nodes form an ordered tree;
// every structural or attribute change is reported to the document's
// observers as a Mutation, so callers can count, record or stream what a
// commit did to the visible tree.
//
//	doc := dom.NewDocument()
//	div := doc.CreateElement("div")
//	div.AppendChild(doc.CreateText("hello"))
//	doc.Body().AppendChild(div)
//	doc.Body().HTML() // <body><div>hello</div></body>
//
// Documents are not safe for concurrent use. All mutation happens on the
// goroutine that drives the render loop.
package dom
