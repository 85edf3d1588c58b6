package cti

import (
	"github.com/sirupsen/logrus"

	"github.com/saltar-ua/Uncoder-IO/xerrors"
)

// Converter is the CTI pipeline entry point, ported from
// cti_translator.py's CTIConverter: extract IOCs, bucket, chunk through a
// platform mapping, and render each chunk as one standalone query.
type Converter struct {
	log logrus.FieldLogger
}

func NewConverter() *Converter { return &Converter{log: logrus.StandardLogger()} }

// Convert runs the full pipeline and wraps the outcome in a MultiEnvelope,
// mirroring handle_translation_exceptions at the API boundary.
func (c *Converter) Convert(text string, renderer Renderer, iocsPerQuery int, opts Options) xerrors.MultiEnvelope {
	return xerrors.HandleMulti(func() ([]string, []xerrors.Diagnostic, error) {
		iocs := Extract(text, opts)
		bucketed := Bucket(iocs)
		chunks := ChunkIOCs(bucketed, renderer.Mapping(), iocsPerQuery)
		queries := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			queries = append(queries, renderer.RenderChunk(chunk))
		}
		return queries, nil, nil
	})
}
