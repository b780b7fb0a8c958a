package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on spans.
const (
	AttrDatasource = attribute.Key("askdb.datasource")
	AttrSchema     = attribute.Key("askdb.schema")
	AttrMode       = attribute.Key("askdb.mode")
	AttrSessionID  = attribute.Key("askdb.session_id")
	AttrRowCount   = attribute.Key("askdb.row_count")
	AttrTableCount = attribute.Key("askdb.table_count")
	AttrValid      = attribute.Key("askdb.validation.valid")
	AttrProvider   = attribute.Key("llm.provider")
	AttrModel      = attribute.Key("llm.model")
	AttrPurpose    = attribute.Key("llm.purpose")
	AttrTokensIn   = attribute.Key("llm.tokens.prompt")
	AttrTokensOut  = attribute.Key("llm.tokens.completion")
)

// RecordError marks the span failed. A nil error is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
