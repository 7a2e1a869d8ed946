package pricing

import "soukly/internal/domain"

// FinalPrice applies the combined markup to a base price. The max with
// the base enforces the floor invariant: this engine raises prices, it
// never introduces a discount.
func FinalPrice(base, baseMarkupPercent, dynamicMarkupPercent float64) float64 {
	marked := base + base*(baseMarkupPercent+dynamicMarkupPercent)/100
	if marked < base {
		marked = base
	}
	return round2(marked)
}

// ResolvePrices writes the dynamic markup and final prices onto the
// product and every variant. Variants use their own base markup when
// set (falling back to the product's) but share the single dynamic
// markup computed for the parent. When variants exist the product stock
// becomes the sum of variant stocks.
func ResolvePrices(cfg Config, p *domain.Product, dynamicMarkupPercent float64) {
	baseMarkup := p.BaseMarkupPercent
	if baseMarkup < 0 {
		baseMarkup = cfg.DefaultBaseMarkup
	}

	p.DynamicMarkupPercent = dynamicMarkupPercent
	p.FinalPrice = FinalPrice(p.BasePrice(), baseMarkup, dynamicMarkupPercent)

	if len(p.Variants) == 0 {
		return
	}

	for i := range p.Variants {
		v := &p.Variants[i]
		vm := baseMarkup
		if v.BaseMarkupPercent != nil {
			vm = *v.BaseMarkupPercent
		}
		v.DynamicMarkupPercent = dynamicMarkupPercent
		v.FinalPrice = FinalPrice(v.BasePrice(), vm, dynamicMarkupPercent)
	}
	p.Stock = p.TotalStock()
}

// DiscountPercent derives the legacy discount state used as a
// visibility signal: how far the discount price undercuts the base.
func DiscountPercent(p *domain.Product) float64 {
	base := p.BasePrice()
	if p.DiscountPrice == nil || base <= 0 {
		return 0
	}
	d := *p.DiscountPrice
	if d <= 0 || d >= base {
		return 0
	}
	return (base - d) / base * 100
}
