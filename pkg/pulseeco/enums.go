package pulseeco

// SensorType identifies the hardware behind a sensor.
type SensorType string

const (
	SensorTypeUnknown      SensorType = "-1"    // unknown type
	SensorTypeMOEPP        SensorType = "0"     // MOEPP measurement station
	SensorTypeSkopjeLoRaV1 SensorType = "1"     // SkopjePulse LoRaWAN based sensor, version 1
	SensorTypeSkopjeWiFiV1 SensorType = "2"     // SkopjePulse WiFi based sensor, version 1
	SensorTypePulseWiFiV2  SensorType = "3"     // pulse.eco WiFi based sensor, version 2
	SensorTypePulseLoRaV2  SensorType = "4"     // pulse.eco LoRaWAN based sensor, version 2
	SensorType6            SensorType = "6"     // undocumented upstream
	SensorTypePengyV1      SensorType = "20001" // pengy device, version 1
	SensorTypeURADMonitor  SensorType = "20002" // URAD Monitor device
	SensorTypeAirThings    SensorType = "20003" // AirThings platform device
	SensorTypeCommunity    SensorType = "20004" // sensor.community crowdsourced device
	SensorType20005        SensorType = "20005"
	SensorType20006        SensorType = "20006"
)

var sensorTypes = map[SensorType]struct{}{
	SensorTypeUnknown: {}, SensorTypeMOEPP: {}, SensorTypeSkopjeLoRaV1: {}, SensorTypeSkopjeWiFiV1: {},
	SensorTypePulseWiFiV2: {}, SensorTypePulseLoRaV2: {}, SensorType6: {}, SensorTypePengyV1: {},
	SensorTypeURADMonitor: {}, SensorTypeAirThings: {}, SensorTypeCommunity: {},
	SensorType20005: {}, SensorType20006: {},
}

// Valid reports whether t is a known sensor type.
func (t SensorType) Valid() bool {
	_, ok := sensorTypes[t]
	return ok
}

// SensorStatus is the lifecycle state of a sensor.
type SensorStatus string

const (
	// StatusRequested means a location was requested with a device ID but no data arrived yet.
	StatusRequested SensorStatus = "REQUESTED"
	// StatusActive means the sensor is up and running.
	StatusActive SensorStatus = "ACTIVE"
	// StatusActiveUnconfirmed means running but not yet confirmed by the community lead.
	StatusActiveUnconfirmed SensorStatus = "ACTIVE_UNCONFIRMED"
	// StatusInactive means registered but turned off and ignored.
	StatusInactive SensorStatus = "INACTIVE"
	// StatusNotClaimed means registered but not bound to an owner.
	StatusNotClaimed SensorStatus = "NOT_CLAIMED"
	// StatusNotClaimedUnconfirmed means not bound to an owner nor confirmed.
	StatusNotClaimedUnconfirmed SensorStatus = "NOT_CLAIMED_UNCONFIRMED"
	// StatusBanned means manually removed to keep data sane.
	StatusBanned SensorStatus = "BANNED"
)

// Valid reports whether s is a known sensor status.
func (s SensorStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusActive, StatusActiveUnconfirmed, StatusInactive,
		StatusNotClaimed, StatusNotClaimedUnconfirmed, StatusBanned:
		return true
	}
	return false
}

// DataValueType is a measurement tag.
type DataValueType string

const (
	TypeNO2           DataValueType = "no2"
	TypeNO2PPB        DataValueType = "no2_ppb"
	TypeO3            DataValueType = "o3"
	TypeSO2           DataValueType = "so2"
	TypeCO            DataValueType = "co"
	TypeCOPPB         DataValueType = "co_ppb"
	TypeNH3           DataValueType = "nh3"
	TypeNH3PPM        DataValueType = "nh3_ppm"
	TypeNH3PPB        DataValueType = "nh3_ppb"
	TypePM25          DataValueType = "pm25"
	TypePM10          DataValueType = "pm10"
	TypePM1           DataValueType = "pm1"
	TypeTemperature   DataValueType = "temperature"
	TypeHumidity      DataValueType = "humidity"
	TypePressure      DataValueType = "pressure"
	TypeNoise         DataValueType = "noise"
	TypeNoiseDBA      DataValueType = "noise_dba"
	TypeGasResistance DataValueType = "gasResistance"
)

// DataValueTypes lists every known measurement tag in declaration order.
var DataValueTypes = []DataValueType{
	TypeNO2, TypeNO2PPB, TypeO3, TypeSO2, TypeCO, TypeCOPPB, TypeNH3, TypeNH3PPM, TypeNH3PPB,
	TypePM25, TypePM10, TypePM1, TypeTemperature, TypeHumidity, TypePressure, TypeNoise,
	TypeNoiseDBA, TypeGasResistance,
}

// Valid reports whether t is a known measurement tag.
func (t DataValueType) Valid() bool {
	for _, v := range DataValueTypes {
		if v == t {
			return true
		}
	}
	return false
}

// AveragePeriod is the aggregation window of averaged data.
type AveragePeriod string

const (
	PeriodDay   AveragePeriod = "day"
	PeriodWeek  AveragePeriod = "week"
	PeriodMonth AveragePeriod = "month"
)

// Valid reports whether p is one of day, week or month.
func (p AveragePeriod) Valid() bool {
	return p == PeriodDay || p == PeriodWeek || p == PeriodMonth
}
