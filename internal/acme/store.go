package acme

import (
	"os"
	"time"
)

// CertState describes what the certificate store holds for a domain and
// drives the reuse-versus-reissue decision.
type CertState struct {
	Exists  bool
	ModTime time.Time
	AgeDays int
	Fresh   bool
}

// secondsPerDay converts elapsed seconds to whole days, truncating.
const secondsPerDay = 86400

// InspectStore examines the installed certificate file for a domain.
// Age is computed in whole days from the file modification time; a
// certificate younger than freshnessDays is fresh and will be reused.
func InspectStore(certPath string, freshnessDays int, now time.Time) CertState {
	info, err := os.Stat(certPath)
	if err != nil {
		return CertState{}
	}

	age := int(now.Sub(info.ModTime()).Seconds()) / secondsPerDay
	return CertState{
		Exists:  true,
		ModTime: info.ModTime(),
		AgeDays: age,
		Fresh:   age < freshnessDays,
	}
}
