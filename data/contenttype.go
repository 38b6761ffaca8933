package data

import (
	"path"
	"strings"
)

const (
	ContentTypeTextPlain         = "text/plain"
	ContentTypeTextHTML          = "text/html"
	ContentTypeTextCSV           = "text/csv"
	ContentTypeTextMarkdown      = "text/markdown"
	ContentTypeImageJPEG         = "image/jpeg"
	ContentTypeImagePNG          = "image/png"
	ContentTypeImageGIF          = "image/gif"
	ContentTypeImageSVGXML       = "image/svg+xml"
	ContentTypeApplicationPDF    = "application/pdf"
	ContentTypeApplicationZip    = "application/zip"
	ContentTypeApplicationGZip   = "application/gzip"
	ContentTypeApplicationXTar   = "application/x-tar"
	ContentTypeApplicationJson   = "application/json"
	ContentTypeApplicationYAML   = "application/yaml"
	ContentTypeApplicationTOML   = "application/toml"
	ContentTypeApplicationXML    = "application/xml"
	ContentTypeApplicationStream = "application/octet-stream"
)

var extensionToMIME = map[string]string{
	".txt":  ContentTypeTextPlain,
	".log":  ContentTypeTextPlain,
	".html": ContentTypeTextHTML,
	".csv":  ContentTypeTextCSV,
	".md":   ContentTypeTextMarkdown,
	".jpg":  ContentTypeImageJPEG,
	".jpeg": ContentTypeImageJPEG,
	".png":  ContentTypeImagePNG,
	".gif":  ContentTypeImageGIF,
	".svg":  ContentTypeImageSVGXML,
	".pdf":  ContentTypeApplicationPDF,
	".zip":  ContentTypeApplicationZip,
	".gz":   ContentTypeApplicationGZip,
	".tar":  ContentTypeApplicationXTar,
	".json": ContentTypeApplicationJson,
	".yaml": ContentTypeApplicationYAML,
	".yml":  ContentTypeApplicationYAML,
	".toml": ContentTypeApplicationTOML,
	".xml":  ContentTypeApplicationXML,
}

// ContentTypeOf guesses the MIME type of key from its extension.
func ContentTypeOf(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if mime, ok := extensionToMIME[ext]; ok {
		return mime
	}

	return ContentTypeApplicationStream
}
