package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain field helpers

func Component(name string) Field {
	return String("component", name)
}

func Task(name string) Field {
	return String("task", name)
}

func Status(status string) Field {
	return String("status", status)
}

func JobID(id string) Field {
	return String("job_id", id)
}

func Concurrency(n int) Field {
	return Int("concurrency", n)
}

// Partition records a range partition as start and length.
func Partition(start, length uint64) Field {
	return Field{Key: "partition", Value: map[string]uint64{"start": start, "length": length}}
}

func Volume(v uint64) Field {
	return Uint64("volume", v)
}

func Progress(n uint64) Field {
	return Uint64("progress", n)
}

func Percent(p int64) Field {
	return Int64("percent", p)
}

func Elapsed(d time.Duration) Field {
	return Duration("elapsed", d)
}

func Count(n int) Field {
	return Int("count", n)
}
