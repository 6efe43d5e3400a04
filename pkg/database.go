package corrections

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	_ "modernc.org/sqlite"
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// OpenCalibrationFile opens a local SQLite copy of the calibration database.
func OpenCalibrationFile(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	return db, nil
}

type CalibrationType int

const (
	DataCalibration CalibrationType = iota
	MCCalibration
)

func (c CalibrationType) String() string {
	switch c {
	case DataCalibration:
		return "data"
	case MCCalibration:
		return "MC"
	default:
		return "Unknown"
	}
}

func (c CalibrationType) table() string {
	if c == MCCalibration {
		return "MuonScaleMC"
	}
	return "MuonScaleData"
}

// LoadCalibration reads the data and simulation scale tables valid for
// the given run.
func LoadCalibration(db *sqlx.DB, runNumber int) (*ScaleCorrector, error) {
	data, err := getScaleBinsFromDB(db, runNumber, DataCalibration)
	if err != nil {
		return nil, fmt.Errorf("error getting data calibration from database: %w", err)
	}
	mc, err := getScaleBinsFromDB(db, runNumber, MCCalibration)
	if err != nil {
		return nil, fmt.Errorf("error getting MC calibration from database: %w", err)
	}
	return NewScaleCorrector(data, mc), nil
}

func getScaleBinsFromDB(db *sqlx.DB, runNumber int, calibration CalibrationType) ([]ScaleBin, error) {
	query := "SELECT EtaMin, EtaMax, PhiMin, PhiMax, Scale, Shift FROM " + calibration.table() +
		" WHERE MinRun <= ? and MaxRun >= ?"

	logger.Info(fmt.Sprintf("Reading %v calibration from database for run %d", calibration, runNumber), "database")

	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	bins := make([]ScaleBin, 0)
	for rows.Next() {
		result := ScaleBin{}
		err := rows.StructScan(&result)
		if err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		bins = append(bins, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	return bins, nil
}
