// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entrez

import "encoding/xml"

// eSearchResult is the esearch.fcgi XML payload.
type eSearchResult struct {
	XMLName   xml.Name   `xml:"eSearchResult"`
	Count     int        `xml:"Count"`
	RetMax    int        `xml:"RetMax"`
	RetStart  int        `xml:"RetStart"`
	IDList    idList     `xml:"IdList"`
	ErrorList *errorList `xml:"ErrorList"`
}

type idList struct {
	IDs []string `xml:"Id"`
}

type errorList struct {
	PhraseNotFound []string `xml:"PhraseNotFound"`
	FieldNotFound  []string `xml:"FieldNotFound"`
}

// eSummaryResult is the esummary.fcgi XML payload. Titles live in the
// generic Item list keyed by the Name attribute.
type eSummaryResult struct {
	XMLName xml.Name `xml:"eSummaryResult"`
	DocSums []docSum `xml:"DocSum"`
}

type docSum struct {
	ID    string    `xml:"Id"`
	Items []sumItem `xml:"Item"`
}

type sumItem struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

// pubmedArticleSet is the efetch.fcgi XML payload, reduced to the fields
// the pipeline consumes (PMID, title, abstract sections).
type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	PMID    string  `xml:"PMID"`
	Article article `xml:"Article"`
}

type article struct {
	ArticleTitle string    `xml:"ArticleTitle"`
	Abstract     *abstract `xml:"Abstract"`
}

type abstract struct {
	AbstractTexts []abstractText `xml:"AbstractText"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Value string `xml:",chardata"`
}

// eLinkResult is the elink.fcgi XML payload. One LinkSet comes back per
// queried PMID; the cited-in count is the number of Link entries under
// the requested link name.
type eLinkResult struct {
	XMLName  xml.Name  `xml:"eLinkResult"`
	LinkSets []linkSet `xml:"LinkSet"`
}

type linkSet struct {
	IDList     idList      `xml:"IdList"`
	LinkSetDbs []linkSetDb `xml:"LinkSetDb"`
}

type linkSetDb struct {
	LinkName string `xml:"LinkName"`
	Links    []link `xml:"Link"`
}

type link struct {
	ID string `xml:"Id"`
}
