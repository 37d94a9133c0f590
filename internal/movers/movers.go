package movers

import (
    "sort"
    "strings"

    "github.com/shopspring/decimal"

    "nsemirror/internal/provider"
)

// Mover is a record ranked by its parsed change.
type Mover struct {
    Ticker      string          `json:"ticker"`
    Name        string          `json:"name"`
    Price       float64         `json:"price"`
    Change      string          `json:"change"`
    ChangeValue decimal.Decimal `json:"change_value"`
}

// Summary is the market breadth of one snapshot.
type Summary struct {
    Advancers int     `json:"advancers"`
    Decliners int     `json:"decliners"`
    Unchanged int     `json:"unchanged"`
    Unparsed  int     `json:"unparsed"`
    Gainers   []Mover `json:"gainers"`
    Losers    []Mover `json:"losers"`
}

// ParseChange reads a change cell such as "+1.5%", "-0.20" or "1,200".
// The sign, percent suffix and thousands separators are optional.
func ParseChange(s string) (decimal.Decimal, bool) {
    s = strings.TrimSpace(s)
    s = strings.TrimSuffix(s, "%")
    s = strings.ReplaceAll(s, ",", "")
    s = strings.TrimPrefix(strings.TrimSpace(s), "+")
    if s == "" || s == "-" { return decimal.Zero, false }
    d, err := decimal.NewFromString(s)
    if err != nil { return decimal.Zero, false }
    return d, true
}

// Summarize counts advancers and decliners and returns up to limit top
// gainers and losers. Ties keep source order. limit <= 0 means 5.
func Summarize(recs []provider.Record, limit int) Summary {
    if limit <= 0 { limit = 5 }
    s := Summary{Gainers: []Mover{}, Losers: []Mover{}}

    var up, down []Mover
    for _, r := range recs {
        v, ok := ParseChange(r.Change)
        if !ok {
            s.Unparsed++
            continue
        }
        m := Mover{Ticker: r.Ticker, Name: r.Name, Price: r.Price, Change: r.Change, ChangeValue: v}
        switch v.Sign() {
        case 1:
            s.Advancers++
            up = append(up, m)
        case -1:
            s.Decliners++
            down = append(down, m)
        default:
            s.Unchanged++
        }
    }

    sort.SliceStable(up, func(i, j int) bool { return up[i].ChangeValue.GreaterThan(up[j].ChangeValue) })
    sort.SliceStable(down, func(i, j int) bool { return down[i].ChangeValue.LessThan(down[j].ChangeValue) })
    if len(up) > limit { up = up[:limit] }
    if len(down) > limit { down = down[:limit] }
    s.Gainers = append(s.Gainers, up...)
    s.Losers = append(s.Losers, down...)
    return s
}
