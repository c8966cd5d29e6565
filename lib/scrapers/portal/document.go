package portal

import (
	"bytes"
	"encoding/xml"
	"strings"

	"golang.org/x/net/html/charset"
)

// RawDocument is the root <addcourse> element of a class data response.
type RawDocument struct {
	XMLName   xml.Name       `xml:"addcourse"`
	Errors    []RawErrors    `xml:"errors"`
	ClassData []RawClassData `xml:"classdata"`
}

type RawErrors struct {
	Error []string `xml:"error"`
}

type RawClassData struct {
	Course []RawCourse `xml:"course"`
}

// RawCourse is the root course node that ParseCourse consumes.
type RawCourse struct {
	Key        string          `xml:"key,attr"`
	Offering   []RawOffering   `xml:"offering"`
	USelection []RawUSelection `xml:"uselection"`
}

type RawOffering struct {
	Title string `xml:"title,attr"`
	Desc  string `xml:"desc,attr"`
}

// RawUSelection is a "selection grouping", one possible combination of
// lectures, tutorials and labs a student can take together.
type RawUSelection struct {
	Selection []RawSelection `xml:"selection"`
}

type RawSelection struct {
	Block []RawBlock `xml:"block"`
}

type RawBlock struct {
	Type         string `xml:"type,attr"`
	CartId       string `xml:"cartid,attr"`
	SecNo        string `xml:"secNo,attr"`
	Me           string `xml:"me,attr"`
	Os           string `xml:"os,attr"`
	Wc           string `xml:"wc,attr"`
	Ws           string `xml:"ws,attr"`
	Disp         string `xml:"disp,attr"`
	Teacher      string `xml:"teacher,attr"`
	Location     string `xml:"location,attr"`
	Im           string `xml:"im,attr"`
	TimeBlockIds string `xml:"timeblockids,attr"`
}

// DecodeCourseDocument decodes a class data response body.
func DecodeCourseDocument(data []byte) (RawDocument, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel
	decoder.Strict = false

	var doc RawDocument
	err := decoder.Decode(&doc)
	if err != nil {
		return RawDocument{}, malformed("decode xml: %s", err.Error())
	}
	return doc, nil
}

// RemoteError returns the first error the portal reported, or nil.
func (d RawDocument) RemoteError() *RemoteError {
	if len(d.Errors) == 0 || len(d.Errors[0].Error) == 0 {
		return nil
	}
	message := strings.TrimSpace(d.Errors[0].Error[0])
	return &RemoteError{
		Message: message,
		Kind:    ClassifyRemoteError(message),
	}
}

// Course returns the first course node in the document.
func (d RawDocument) Course() (RawCourse, error) {
	if len(d.ClassData) == 0 {
		return RawCourse{}, malformed("no classdata")
	}
	if len(d.ClassData[0].Course) == 0 {
		return RawCourse{}, malformed("no course in classdata")
	}
	return d.ClassData[0].Course[0], nil
}
