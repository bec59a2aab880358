// Пакет stock содержит чистые функции над остатком товара: классификацию
// уровня запаса и применение знакового изменения. Ввода-вывода здесь нет.
package stock

// Level: уровень запаса относительно порога товара.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// ParseLevel разбирает фильтр уровня; пустая строка и "all" дают ok=false.
func ParseLevel(value string) (Level, bool) {
	switch Level(value) {
	case LevelLow, LevelMedium, LevelHigh:
		return Level(value), true
	default:
		return "", false
	}
}

// Classify относит остаток к уровню: Low при stock <= t, Medium при t < stock <= 2t,
// иначе High. Граница stock == t относится к Low, stock == 2t, к Medium.
func Classify(stock, threshold int) Level {
	switch {
	case stock <= threshold:
		return LevelLow
	case stock <= 2*threshold:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// IsLow используется для агрегированных алертов на дашборде.
func IsLow(stock, threshold int) bool {
	return stock <= threshold
}

// Change: результат применения изменения к остатку.
type Change struct {
	Previous int
	Delta    int
	NewStock int
	// Negative выставляется, когда остаток ушёл ниже нуля. Значение не
	// обрезается: учётный остаток может временно быть отрицательным до сверки.
	Negative bool
}

// ApplyDelta возвращает current + delta без ограничения снизу.
func ApplyDelta(current, delta int) Change {
	next := current + delta
	return Change{
		Previous: current,
		Delta:    delta,
		NewStock: next,
		Negative: next < 0,
	}
}
