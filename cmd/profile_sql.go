package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataprobe/internal/loader"
	"github.com/KaramelBytes/dataprobe/internal/report"
)

var (
	sqlDriver       string
	sqlDSN          string
	sqlQuery        string
	sqlName         string
	sqlCategorical  []string
	sqlMaxRows      int
	sqlAnalysis     analysisFlags
	sqlTarget       string
	sqlDropOutliers string
	sqlOutput       string
)

var profileSQLCmd = &cobra.Command{
	Use:   "profile-sql",
	Short: "Profile the result set of a SQL query",
	Long: `profile-sql runs a query against MySQL/MariaDB, PostgreSQL, SQL Server,
Oracle or SQLite and profiles the result like 'profile' does for files.
--driver and --dsn default to sql_driver and sql_dsn from the config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := config()
		driver, dsn := sqlDriver, sqlDSN
		if driver == "" {
			driver = conf.SQLDriver
		}
		if dsn == "" {
			dsn = conf.SQLDSN
		}
		if driver == "" || dsn == "" {
			return fmt.Errorf("--driver and --dsn are required (or set sql_driver and sql_dsn in config)")
		}
		lo, err := conf.LoaderOptions()
		if err != nil {
			return err
		}
		lo.Categorical = sqlCategorical
		if cmd.Flags().Changed("max-rows") {
			lo.MaxRows = sqlMaxRows
		}
		opt, err := reportOptions(cmd, &sqlAnalysis, sqlDropOutliers)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := loader.Open(ctx, driver, dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		ds, err := loader.LoadSQL(ctx, db, sqlQuery, lo)
		if err != nil {
			return err
		}
		name := sqlName
		if name == "" {
			name = driver + " query"
		}
		p, err := report.Build(name, ds, sqlTarget, opt)
		if err != nil {
			return err
		}
		return emit(cmd, p, sqlOutput)
	},
}

func init() {
	rootCmd.AddCommand(profileSQLCmd)
	f := profileSQLCmd.Flags()
	f.StringVar(&sqlDriver, "driver", "", "database driver: mysql | postgres | sqlserver | oracle | sqlite")
	f.StringVar(&sqlDSN, "dsn", "", "driver-specific data source name")
	f.StringVarP(&sqlQuery, "query", "q", "", "SELECT statement to profile")
	f.StringVar(&sqlName, "name", "", "report name (default: '<driver> query')")
	f.StringSliceVar(&sqlCategorical, "categorical", nil, "columns to load as categories (repeatable)")
	f.IntVar(&sqlMaxRows, "max-rows", 0, "maximum rows to fetch (0 = unlimited)")
	sqlAnalysis.register(profileSQLCmd)
	f.StringVarP(&sqlTarget, "target", "t", "", "numeric target column to relate features to")
	f.StringVar(&sqlDropOutliers, "drop-outliers", "", "drop target outliers before relating: iqr | z-score")
	f.StringVarP(&sqlOutput, "output", "o", "", "write the report to a file instead of stdout")
	_ = profileSQLCmd.MarkFlagRequired("query")
}
