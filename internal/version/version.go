package version

import "fmt"

// Заполняются через -ldflags "-X github.com/vladislavdragonenkov/storeops/internal/version.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info описывает сборку консоли.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get возвращает сведения о текущей сборке.
func Get() Info {
	return Info{Version: version, Commit: commit, Date: date}
}

func (i Info) String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", i.Version, i.Commit, i.Date)
}

// String: сокращение для Get().String() в логах запуска.
func String() string {
	return Get().String()
}
