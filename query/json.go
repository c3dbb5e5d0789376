package query

import (
	"encoding/json"
	"time"

	"github.com/genspectrum/silo/query/actions"
	"github.com/genspectrum/silo/query/filter"
	"github.com/genspectrum/silo/query/qerr"
)

// Request is the top-level query request shape of §6.
type Request struct {
	FilterExpression json.RawMessage `json:"filterExpression"`
	Action           json.RawMessage `json:"action"`
}

type discriminant struct {
	Type string `json:"type"`
}

// ParseExpression decodes raw into an Expression tree via the two-pass
// RawMessage discriminated-union technique: first peek at "type", then
// decode into the matching wire struct.
func ParseExpression(raw json.RawMessage) (filter.Expression, error) {
	if len(raw) == 0 {
		return filter.True{}, nil
	}
	var d discriminant
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, qerr.Newf(qerr.QueryParse, "malformed filter expression: %s", err)
	}
	switch d.Type {
	case "True":
		return filter.True{}, nil
	case "False":
		return filter.False{}, nil
	case "And":
		var w struct {
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("And", err)
		}
		children, err := parseExpressions(w.Children)
		if err != nil {
			return nil, err
		}
		return filter.And{Children: children}, nil
	case "Or":
		var w struct {
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("Or", err)
		}
		children, err := parseExpressions(w.Children)
		if err != nil {
			return nil, err
		}
		return filter.Or{Children: children}, nil
	case "Not":
		child, err := parseChild("Not", raw)
		if err != nil {
			return nil, err
		}
		return filter.Not{Child: child}, nil
	case "Maybe":
		child, err := parseChild("Maybe", raw)
		if err != nil {
			return nil, err
		}
		return filter.Maybe{Child: child}, nil
	case "Exact":
		child, err := parseChild("Exact", raw)
		if err != nil {
			return nil, err
		}
		return filter.Exact{Child: child}, nil
	case "N-Of":
		var w struct {
			NumberOfMatchers int               `json:"numberOfMatchers"`
			MatchExactly     bool              `json:"matchExactly"`
			Children         []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("N-Of", err)
		}
		children, err := parseExpressions(w.Children)
		if err != nil {
			return nil, err
		}
		return filter.NOf{NumberOfMatchers: w.NumberOfMatchers, MatchExactly: w.MatchExactly, Children: children}, nil
	case "NucleotideEquals", "AminoAcidEquals":
		var w struct {
			SequenceName string `json:"sequenceName"`
			Position     uint32 `json:"position"`
			Symbol       string `json:"symbol"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr(d.Type, err)
		}
		if len(w.Symbol) != 1 {
			return nil, qerr.Newf(qerr.QueryParse, "%s: symbol must be a single character", d.Type)
		}
		if d.Type == "NucleotideEquals" {
			return filter.NucleotideEquals{SequenceName: w.SequenceName, Position: w.Position, Symbol: w.Symbol[0]}, nil
		}
		return filter.AminoAcidEquals{SequenceName: w.SequenceName, Position: w.Position, Symbol: w.Symbol[0]}, nil
	case "HasNucleotideMutation", "HasAminoAcidMutation":
		var w struct {
			SequenceName string `json:"sequenceName"`
			Position     uint32 `json:"position"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr(d.Type, err)
		}
		if d.Type == "HasNucleotideMutation" {
			return filter.HasNucleotideMutation{SequenceName: w.SequenceName, Position: w.Position}, nil
		}
		return filter.HasAminoAcidMutation{SequenceName: w.SequenceName, Position: w.Position}, nil
	case "NucleotideInsertionContains", "AminoAcidInsertionContains":
		var w struct {
			SequenceName string `json:"sequenceName"`
			Position     uint32 `json:"position"`
			Value        string `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr(d.Type, err)
		}
		if d.Type == "NucleotideInsertionContains" {
			return filter.NucleotideInsertionContains{SequenceName: w.SequenceName, Position: w.Position, Value: w.Value}, nil
		}
		return filter.AminoAcidInsertionContains{SequenceName: w.SequenceName, Position: w.Position, Value: w.Value}, nil
	case "DateBetween":
		var w struct {
			Column string  `json:"column"`
			From   *string `json:"from"`
			To     *string `json:"to"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("DateBetween", err)
		}
		from, err := parseOptionalDate(w.From)
		if err != nil {
			return nil, err
		}
		to, err := parseOptionalDate(w.To)
		if err != nil {
			return nil, err
		}
		return filter.DateBetween{Column: w.Column, From: from, To: to}, nil
	case "IntBetween":
		var w struct {
			Column string `json:"column"`
			From   *int64 `json:"from"`
			To     *int64 `json:"to"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("IntBetween", err)
		}
		return filter.IntBetween{Column: w.Column, From: w.From, To: w.To}, nil
	case "IntEquals":
		var w struct {
			Column string `json:"column"`
			Value  int64  `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("IntEquals", err)
		}
		return filter.IntEquals{Column: w.Column, Value: w.Value}, nil
	case "FloatBetween":
		var w struct {
			Column string   `json:"column"`
			From   *float64 `json:"from"`
			To     *float64 `json:"to"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("FloatBetween", err)
		}
		return filter.FloatBetween{Column: w.Column, From: w.From, To: w.To}, nil
	case "FloatEquals":
		var w struct {
			Column string  `json:"column"`
			Value  float64 `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("FloatEquals", err)
		}
		return filter.FloatEquals{Column: w.Column, Value: w.Value}, nil
	case "BoolEquals":
		var w struct {
			Column string `json:"column"`
			Value  *bool  `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("BoolEquals", err)
		}
		return filter.BoolEquals{Column: w.Column, Value: w.Value}, nil
	case "StringEquals":
		var w struct {
			Column string  `json:"column"`
			Value  *string `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("StringEquals", err)
		}
		return filter.StringEquals{Column: w.Column, Value: w.Value}, nil
	case "StringSearch":
		var w struct {
			Column           string `json:"column"`
			SearchExpression string `json:"searchExpression"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("StringSearch", err)
		}
		return filter.StringSearch{Column: w.Column, SearchExpression: w.SearchExpression}, nil
	case "Lineage":
		var w struct {
			Column             string  `json:"column"`
			Value              *string `json:"value"`
			IncludeSublineages bool    `json:"includeSublineages"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, parseErr("Lineage", err)
		}
		return filter.Lineage{Column: w.Column, Value: w.Value, IncludeSublineages: w.IncludeSublineages}, nil
	default:
		return nil, qerr.Newf(qerr.QueryParse, "unknown expression type %q", d.Type)
	}
}

func parseErr(typ string, err error) error {
	return qerr.Newf(qerr.QueryParse, "%s: %s", typ, err)
}

func parseExpressions(raws []json.RawMessage) ([]filter.Expression, error) {
	out := make([]filter.Expression, 0, len(raws))
	for _, r := range raws {
		e, err := ParseExpression(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func parseChild(typ string, raw json.RawMessage) (filter.Expression, error) {
	var w struct {
		Child json.RawMessage `json:"child"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, parseErr(typ, err)
	}
	return ParseExpression(w.Child)
}

func parseOptionalDate(s *string) (*int32, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, qerr.Newf(qerr.QueryParse, "invalid date %q: %s", *s, err)
	}
	days := int32(t.Sub(time.Unix(0, 0).UTC()).Hours() / 24)
	return &days, nil
}

// orderField is one entry of an action's orderByFields (§6).
type orderField struct {
	Field string
	Desc  bool
}

// actionOptions holds the common orderByFields/limit/offset every action
// wire object accepts alongside its own fields (§6).
type actionOptions struct {
	OrderBy []orderField
	Limit   *int
	Offset  *int
}

func parseActionOptions(raw json.RawMessage) (actionOptions, error) {
	var w struct {
		OrderByFields []json.RawMessage `json:"orderByFields"`
		Limit         *int              `json:"limit"`
		Offset        *int              `json:"offset"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return actionOptions{}, parseErr("action options", err)
	}
	opts := actionOptions{Limit: w.Limit, Offset: w.Offset}
	for _, r := range w.OrderByFields {
		var asString string
		if err := json.Unmarshal(r, &asString); err == nil {
			opts.OrderBy = append(opts.OrderBy, orderField{Field: asString})
			continue
		}
		var asObject struct {
			Field string `json:"field"`
			Order string `json:"order"`
		}
		if err := json.Unmarshal(r, &asObject); err != nil {
			return actionOptions{}, parseErr("orderByFields", err)
		}
		opts.OrderBy = append(opts.OrderBy, orderField{Field: asObject.Field, Desc: asObject.Order == "desc"})
	}
	return opts, nil
}

// ParseAction decodes raw into an Action plus its shared options.
func ParseAction(raw json.RawMessage) (actions.Action, actionOptions, error) {
	if len(raw) == 0 {
		return nil, actionOptions{}, qerr.Newf(qerr.QueryParse, "missing action")
	}
	var d discriminant
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, actionOptions{}, qerr.Newf(qerr.QueryParse, "malformed action: %s", err)
	}
	opts, err := parseActionOptions(raw)
	if err != nil {
		return nil, actionOptions{}, err
	}
	switch d.Type {
	case "Aggregated":
		var w struct {
			GroupByFields []string `json:"groupByFields"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, opts, parseErr("Aggregated", err)
		}
		return actions.Aggregated{GroupByFields: w.GroupByFields}, opts, nil
	case "Details":
		var w struct {
			Fields []string `json:"fields"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, opts, parseErr("Details", err)
		}
		return actions.Details{Fields: w.Fields}, opts, nil
	case "Fasta", "FastaAligned":
		var w struct {
			SequenceName     []string `json:"sequenceName"`
			AdditionalFields []string `json:"additionalFields"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, opts, parseErr(d.Type, err)
		}
		return actions.Fasta{SequenceNames: w.SequenceName, AdditionalFields: w.AdditionalFields, Aligned: d.Type == "FastaAligned"}, opts, nil
	case "Mutations":
		var w struct {
			SequenceNames []string `json:"sequenceNames"`
			MinProportion float64  `json:"minProportion"`
			Fields        []string `json:"fields"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, opts, parseErr("Mutations", err)
		}
		if w.MinProportion < 0 || w.MinProportion > 1 {
			return nil, opts, qerr.Newf(qerr.QueryParse, "minProportion must be within [0,1], got %v", w.MinProportion)
		}
		return actions.Mutations{SequenceNames: w.SequenceNames, MinProportion: w.MinProportion, Fields: w.Fields}, opts, nil
	case "InsertionAggregation":
		var w struct {
			SequenceNames []string `json:"sequenceNames"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, opts, parseErr("InsertionAggregation", err)
		}
		return actions.InsertionAggregation{SequenceNames: w.SequenceNames}, opts, nil
	case "MostRecentCommonAncestor", "PhyloSubtree", "PhyloParents":
		var w struct {
			ColumnName          string `json:"columnName"`
			PrintNodesNotInTree bool   `json:"printNodesNotInTree"`
			ContractUnaryNodes  bool   `json:"contractUnaryNodes"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, opts, parseErr(d.Type, err)
		}
		switch d.Type {
		case "MostRecentCommonAncestor":
			return actions.MostRecentCommonAncestor{ColumnName: w.ColumnName, PrintNodesNotInTree: w.PrintNodesNotInTree, ContractUnaryNodes: w.ContractUnaryNodes}, opts, nil
		case "PhyloSubtree":
			return actions.PhyloSubtree{ColumnName: w.ColumnName, PrintNodesNotInTree: w.PrintNodesNotInTree, ContractUnaryNodes: w.ContractUnaryNodes}, opts, nil
		default:
			return actions.PhyloParents{ColumnName: w.ColumnName, PrintNodesNotInTree: w.PrintNodesNotInTree, ContractUnaryNodes: w.ContractUnaryNodes}, opts, nil
		}
	default:
		return nil, opts, qerr.Newf(qerr.QueryParse, "unknown action type %q", d.Type)
	}
}
