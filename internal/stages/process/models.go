// internal/stages/process/models.go
package process

// Stats summarizes a processing run.
type Stats struct {
	Processed    int `json:"processed"`
	Repaired     int `json:"repaired"`
	FallbackUsed int `json:"fallbackUsed"`
	KeptOriginal int `json:"keptOriginal"`
	CacheHits    int `json:"cacheHits"`
}
