// Package domain models simulated cyclone conditions and the power-outage
// risk derived from them.
//
// # Readings
//
// A [Reading] is one synthetic observation. Field ranges and display
// precision:
//
//	WindSpeed          0-200 mph     one decimal
//	Precipitation      0-150 mm/hr   one decimal
//	FloodRisk          0-10 scale    one decimal
//	CycloneCategory    1-5 integer
//	VegetationDensity  0-1 fraction  two decimals (nearest 1%)
//
// # Correlation Chain
//
// Readings are synthesized so that wind drives precipitation and
// precipitation drives flooding:
//
//	wind    = 80 + 40*sin(t/10000) + U(0,30)         t in Unix milliseconds
//	precip  = (wind/200)*80 + U(0,40)
//	flood   = (precip/150)*6 + U(0,3)
//	veg     = 0.3 + U(0,0.5)
//
// The sinusoid has a period of roughly 63 seconds, so a dashboard sampling
// once per second sees the storm intensify and weaken about once a minute.
//
// Cyclone category comes from the Saffir-Simpson style breakpoints on wind
// speed (<74, <96, <111, <130 mph) followed by an integer jitter of
// round((U(0,1)-0.5)*0.8). The jitter term never exceeds 0.4 in magnitude,
// so it rounds to zero; it is kept so the category formula matches the
// dashboard that consumers were built against.
//
// # Outage Risk
//
// The composite score is
//
//	0.35*(wind/45) + 0.25*(precip/150) + 0.20*(flood/2) + 0.15*veg + 0.05*(gridAge/50)
//
// clamped to [0,1]. The wind and flood terms are not normalized to [0,1]
// before weighting, so any wind speed above roughly 130 mph saturates the
// score on its own.
//
// Risk levels use inclusive upper bounds: Low <=0.30, Medium <=0.60,
// High <=0.80, Critical above.
//
// # Parameter Status
//
// Each reading field is also classified on its own against a three-step
// threshold table (see [ClassifyParameter]). Unrecognized parameter names
// report [StatusUnknown], which renders with the "safe" presentation class.
package domain
