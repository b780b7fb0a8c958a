package testhelpers

// SeedStatements creates the fixture schema shared by the SQLite and
// PostgreSQL test databases: three employees (two hired after 2020-01-01),
// four orders, and a view that introspection must not list as a table.
var SeedStatements = []string{
	`CREATE TABLE employees (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		department TEXT,
		hire_date DATE,
		salary INTEGER
	)`,
	`INSERT INTO employees (id, name, department, hire_date, salary) VALUES
		(1, 'Ana', 'Engineering', '2019-03-15', 5000),
		(2, 'Bruno', 'Sales', '2021-06-01', 6200),
		(3, 'Carla', 'Engineering', '2022-11-20', 7100)`,
	`CREATE TABLE orders (
		order_id INTEGER PRIMARY KEY,
		customer TEXT NOT NULL,
		order_date DATE,
		amount NUMERIC(10, 2)
	)`,
	`INSERT INTO orders (order_id, customer, order_date, amount) VALUES
		(100, 'Acme', '2024-01-05', 120.50),
		(101, 'Globex', '2024-01-09', 75.00),
		(102, 'Acme', '2024-02-11', 310.25),
		(103, 'Initech', '2024-03-02', 42.10)`,
	`CREATE VIEW recent_hires AS
		SELECT name, hire_date FROM employees WHERE hire_date > '2020-01-01'`,
}

// EmployeesHiredAfter2020 is the fixture answer to "which employees were hired after 2020".
var EmployeesHiredAfter2020 = []string{"Bruno", "Carla"}
