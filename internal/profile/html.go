package profile

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/a-h/templ"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
h1{margin-bottom:0}h2{border-bottom:1px solid #ddd;padding-bottom:.25rem;margin-top:2rem}
table{border-collapse:collapse;margin:.5rem 0}td,th{border:1px solid #ddd;padding:.25rem .5rem;text-align:left}
th{background:#f5f5f5}.meta{color:#666}.alert{margin:.25rem 0}.alert b{text-transform:uppercase;font-size:.75rem;color:#a33}
.var{border:1px solid #eee;padding:.5rem 1rem;margin:1rem 0}.bar{background:#4a7bd0;height:.8rem;display:inline-block}`

// Page renders the full self-contained HTML document for r.
func Page(r *Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>")
		p.text(r.Title)
		p.raw("</title><style>" + pageStyle + "</style></head><body>")
		p.raw("<h1>")
		p.text(r.Title)
		p.raw("</h1><p class=\"meta\">Generated ")
		p.text(r.GeneratedAt.Format(time.RFC1123))
		p.raw("</p>")
		if p.err != nil {
			return p.err
		}
		for _, section := range []templ.Component{overview(r), alertList(r.Alerts), variables(r.Variables), correlations(r.Correlations), sample(r)} {
			if err := section.Render(ctx, w); err != nil {
				return err
			}
		}
		p.raw("</body></html>")
		return p.err
	})
}

func overview(r *Report) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw("<h2>Overview</h2><table>")
		p.row("Number of rows", strconv.Itoa(r.Rows))
		p.row("Number of columns", strconv.Itoa(r.Columns))
		p.row("Missing cells", fmt.Sprintf("%d (%.1f%%)", r.MissingCells, r.MissingPercent))
		p.row("Duplicate rows", strconv.Itoa(r.DuplicateRows))
		for _, typ := range []string{"int", "float", "text", "bool", "datetime"} {
			if n := r.TypeCounts[typ]; n > 0 {
				p.row("Columns of type "+typ, strconv.Itoa(n))
			}
		}
		p.raw("</table>")
		return p.err
	})
}

func alertList(alerts []Alert) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw("<h2>Alerts</h2>")
		if len(alerts) == 0 {
			p.raw("<p>No alerts.</p>")
		}
		for _, a := range alerts {
			p.raw("<div class=\"alert\"><b>")
			p.text(a.Kind)
			p.raw("</b> ")
			p.text(a.Message)
			p.raw("</div>")
		}
		return p.err
	})
}

func variables(vars []Variable) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw("<h2>Variables</h2>")
		for _, v := range vars {
			p.raw("<div class=\"var\"><h3>")
			p.text(v.Name)
			p.raw(" <small class=\"meta\">")
			p.text(v.Type)
			p.raw("</small></h3><table>")
			p.row("Present", strconv.Itoa(v.Count))
			p.row("Missing", fmt.Sprintf("%d (%.1f%%)", v.Missing, v.MissingPercent))
			p.row("Distinct", strconv.Itoa(v.Distinct))
			switch {
			case v.Numeric != nil:
				n := v.Numeric
				p.row("Mean", num(n.Mean))
				p.row("Std", num(n.Std))
				p.row("Min", num(n.Min))
				p.row("25%", num(n.Q25))
				p.row("50%", num(n.Median))
				p.row("75%", num(n.Q75))
				p.row("Max", num(n.Max))
				p.row("Zeros", strconv.Itoa(n.Zeros))
				p.raw("</table>")
				p.histogram(n.Histogram)
			case v.Temporal != nil:
				p.row("Min", v.Temporal.Min.Format(time.RFC3339))
				p.row("Max", v.Temporal.Max.Format(time.RFC3339))
				p.raw("</table>")
			case v.Categorical != nil:
				p.raw("</table><table><tr><th>Value</th><th>Count</th></tr>")
				for _, vc := range v.Categorical.Top {
					p.row(vc.Value, strconv.Itoa(vc.Count))
				}
				p.raw("</table>")
			default:
				p.raw("</table>")
			}
			p.raw("</div>")
		}
		return p.err
	})
}

func correlations(c *Correlation) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if c == nil {
			return nil
		}
		p := &printer{w: w}
		p.raw("<h2>Correlations</h2><table><tr><th></th>")
		for _, name := range c.Columns {
			p.raw("<th>")
			p.text(name)
			p.raw("</th>")
		}
		p.raw("</tr>")
		for i, name := range c.Columns {
			p.raw("<tr><th>")
			p.text(name)
			p.raw("</th>")
			for _, x := range c.Matrix[i] {
				if x == nil {
					p.raw("<td></td>")
					continue
				}
				p.raw(fmt.Sprintf("<td style=\"background:%s\">%.2f</td>", heat(*x), *x))
			}
			p.raw("</tr>")
		}
		p.raw("</table>")
		return p.err
	})
}

func sample(r *Report) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw("<h2>Sample</h2><table><tr>")
		for _, h := range r.SampleHeader {
			p.raw("<th>")
			p.text(h)
			p.raw("</th>")
		}
		p.raw("</tr>")
		for _, row := range r.Sample {
			p.raw("<tr>")
			for _, cell := range row {
				p.raw("<td>")
				p.text(cell)
				p.raw("</td>")
			}
			p.raw("</tr>")
		}
		p.raw("</table>")
		return p.err
	})
}

// WriteHTML renders r as a standalone HTML document.
func WriteHTML(ctx context.Context, w io.Writer, r *Report) error {
	return Page(r).Render(ctx, w)
}

// printer writes HTML fragments and keeps the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *printer) text(s string) { p.raw(templ.EscapeString(s)) }

func (p *printer) row(label, value string) {
	p.raw("<tr><th>")
	p.text(label)
	p.raw("</th><td>")
	p.text(value)
	p.raw("</td></tr>")
}

func (p *printer) histogram(bins []Bin) {
	most := 0
	for _, b := range bins {
		most = max(most, b.Count)
	}
	if most == 0 {
		return
	}
	p.raw("<table>")
	for _, b := range bins {
		p.raw("<tr><td>")
		p.text(num(b.Lo) + " to " + num(b.Hi))
		p.raw(fmt.Sprintf("</td><td><span class=\"bar\" style=\"width:%dpx\"></span> %d</td></tr>", 200*b.Count/most, b.Count))
	}
	p.raw("</table>")
}

func num(x float64) string { return strconv.FormatFloat(x, 'g', 6, 64) }

// heat maps a correlation in [-1, 1] to a red-white-blue background.
func heat(x float64) string {
	v := int(255 * (1 - math.Min(1, math.Abs(x))))
	if x >= 0 {
		return fmt.Sprintf("rgb(%d,%d,255)", v, v)
	}
	return fmt.Sprintf("rgb(255,%d,%d)", v, v)
}
