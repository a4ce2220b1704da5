package services

import "travel-matrix-service/internal/domain"

// Known California city pairs with expected drive-time ranges in minutes.
// Diagnostic reference routes only; benchmark failures never gate a build.
func DefaultBenchmarks() []domain.RouteBenchmark {
	return []domain.RouteBenchmark{
		// LA metro
		{OriginZip: "90001", DestZip: "90210", ExpectedMin: 25, ExpectedMax: 35},
		{OriginZip: "90001", DestZip: "90211", ExpectedMin: 20, ExpectedMax: 30},
		{OriginZip: "90001", DestZip: "90212", ExpectedMin: 30, ExpectedMax: 40},

		// SF Bay Area
		{OriginZip: "94102", DestZip: "94105", ExpectedMin: 10, ExpectedMax: 15},
		{OriginZip: "94102", DestZip: "94108", ExpectedMin: 8, ExpectedMax: 12},
		{OriginZip: "94102", DestZip: "94109", ExpectedMin: 12, ExpectedMax: 18},

		// San Diego
		{OriginZip: "92101", DestZip: "92102", ExpectedMin: 8, ExpectedMax: 12},
		{OriginZip: "92101", DestZip: "92103", ExpectedMin: 10, ExpectedMax: 15},
		{OriginZip: "92101", DestZip: "92104", ExpectedMin: 12, ExpectedMax: 18},

		// Cross-region, expected multi-hour
		{OriginZip: "90001", DestZip: "94102", ExpectedMin: 360, ExpectedMax: 420},
		{OriginZip: "90001", DestZip: "92101", ExpectedMin: 120, ExpectedMax: 150},
		{OriginZip: "94102", DestZip: "92101", ExpectedMin: 480, ExpectedMax: 540},
	}
}
