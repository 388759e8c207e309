package xopp

import (
	"encoding/xml"
)

type xmlNotebook struct {
	XMLName xml.Name
	Title   string    `xml:"title"`
	Pages   []xmlPage `xml:"page"`
}

type xmlPage struct {
	Width      float64       `xml:"width,attr"`
	Height     float64       `xml:"height,attr"`
	Background xmlBackground `xml:"background"`
	Layers     []xmlLayer    `xml:"layer"`
}

type xmlBackground struct {
	Type     string `xml:"type,attr"`
	Color    string `xml:"color,attr"`
	Style    string `xml:"style,attr"`
	Domain   string `xml:"domain,attr"`
	Filename string `xml:"filename,attr"`
	PageNo   string `xml:"pageno,attr"`
}

type xmlLayer struct {
	Name string `xml:"name,attr"`
	// Items keeps strokes, texts and images in file order.
	Items []xmlItem `xml:",any"`
}

type xmlItem struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Body    string     `xml:",chardata"`
}

func (it xmlItem) attr(name string) string {
	for _, a := range it.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
