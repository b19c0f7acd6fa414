package sqlstore

import "database/sql"

// schema creates every table on startup. Foods are shared; everything else
// is keyed by user.
const schema = `
CREATE TABLE IF NOT EXISTS foods (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    keywords TEXT NOT NULL,
    composite INTEGER NOT NULL,
    calories INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS food_components (
    food_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    component_id TEXT NOT NULL,
    servings INTEGER NOT NULL,
    PRIMARY KEY (food_id, position),
    FOREIGN KEY (food_id) REFERENCES foods(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS entries (
    user TEXT NOT NULL,
    date TEXT NOT NULL,
    position INTEGER NOT NULL,
    food_id TEXT NOT NULL,
    servings INTEGER NOT NULL,
    logged_at TEXT NOT NULL,
    PRIMARY KEY (user, date, position)
);

CREATE TABLE IF NOT EXISTS commands (
    user TEXT NOT NULL,
    seq INTEGER NOT NULL,
    kind TEXT NOT NULL,
    date TEXT NOT NULL,
    food_id TEXT NOT NULL,
    servings INTEGER NOT NULL,
    logged_at TEXT NOT NULL,
    PRIMARY KEY (user, seq)
);

CREATE TABLE IF NOT EXISTS profiles (
    user TEXT NOT NULL,
    seq INTEGER NOT NULL,
    username TEXT NOT NULL,
    gender TEXT NOT NULL,
    height_cm REAL NOT NULL,
    age INTEGER NOT NULL,
    weight_kg REAL NOT NULL,
    activity TEXT NOT NULL,
    method TEXT NOT NULL,
    PRIMARY KEY (user, seq)
);

CREATE INDEX IF NOT EXISTS idx_food_components_food_id ON food_components(food_id);
`

// activeSeq marks the active profile row; snapshots use seq 0 and up.
const activeSeq = -1

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
