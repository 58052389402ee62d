package teldata

type Configuration struct {
	FileIn           string `json:"file_in" yaml:"file_in" env:"TELDATA_FILE_IN"`
	FileOut          string `json:"file_out" yaml:"file_out" env:"TELDATA_FILE_OUT"`
	MaxEvents        int    `json:"max_events" yaml:"max_events" env:"TELDATA_MAX_EVENTS"`
	Skip             int    `json:"skip" yaml:"skip" env:"TELDATA_SKIP"`
	Verbosity        int    `json:"verbosity" yaml:"verbosity" env:"TELDATA_VERBOSITY"`
	NumWorkers       int    `json:"num_workers" yaml:"num_workers" env:"TELDATA_NUM_WORKERS"`
	WriteData        bool   `json:"write_data" yaml:"write_data" env:"TELDATA_WRITE_DATA"`
	Discard          bool   `json:"discard" yaml:"discard" env:"TELDATA_DISCARD"`
	StrictSchema     bool   `json:"strict_schema" yaml:"strict_schema" env:"TELDATA_STRICT_SCHEMA"`
	WriteResiduals   bool   `json:"write_residuals" yaml:"write_residuals" env:"TELDATA_WRITE_RESIDUALS"`
	CompressionLevel int    `json:"compression_level" yaml:"compression_level" env:"TELDATA_COMPRESSION_LEVEL"`
	ChunkSize        int    `json:"chunk_size" yaml:"chunk_size" env:"TELDATA_CHUNK_SIZE"`
	NoDB             bool   `json:"no_db" yaml:"no_db" env:"TELDATA_NO_DB"`
	DBDriver         string `json:"db_driver" yaml:"db_driver" env:"TELDATA_DB_DRIVER"`
	Host             string `json:"host" yaml:"host" env:"TELDATA_DB_HOST"`
	Port             int    `json:"port" yaml:"port" env:"TELDATA_DB_PORT"`
	User             string `json:"user" yaml:"user" env:"TELDATA_DB_USER"`
	Passwd           string `json:"pass" yaml:"pass" env:"TELDATA_DB_PASS"`
	DBName           string `json:"dbname" yaml:"dbname" env:"TELDATA_DB_NAME"`
}

const (
	DefaultChunkSize        = 32768
	DefaultCompressionLevel = 4
)
