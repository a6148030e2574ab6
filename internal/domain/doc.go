// Package domain models column-averaged CO2 (XCO2) soundings read from
// OCO-2 style Lite files and their persisted PostGIS form.
//
// # Data Source
//
// Lite files are netCDF4 (HDF5) containers with one entry per sounding in a
// set of parallel one-dimensional arrays. The arrays consumed here are:
//
//	latitude   float32  degrees north, WGS-84
//	longitude  float32  degrees east, WGS-84
//	xco2       float32  dry-air mole fraction in ppm
//	date       int16    [sounding][7] year, month, day, hour, minute, second, millisecond
//
// Only the first six date components are used; the millisecond component is
// dropped so that timestamps have whole-second resolution. A single file
// holds tens of thousands of soundings.
//
// # Coordinate Precision
//
// Latitude and longitude are rounded to 6 decimal places (about 0.11 m at the
// equator), half to even on the exact binary value. Coordinates are not
// range checked.
//
// # Spatial Literals
//
// Each record carries two EWKT literals built from the same coordinate pair:
//
//	SRID=4326;POINT(<lat> <lon>)  geography column, storage and distance queries
//	SRID=3857;POINT(<lat> <lon>)  geometry column, web-map rendering
//
// The argument order is written verbatim (latitude first). Consumers that
// expect x=longitude must swap on read. PostGIS coerces a geography ordinate
// outside [-90, 90] in the second position and reports it as a notice.
//
// # Failure Model
//
// A malformed sounding (a field that cannot be coerced, or an impossible
// calendar date) ends extraction with an error wrapping [ErrMalformedRecord].
// Records already loaded stay committed.
package domain
