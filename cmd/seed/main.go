package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pharmadesk/internal/cache"
	"github.com/pharmadesk/internal/config"
	"github.com/pharmadesk/internal/constants"
	"github.com/pharmadesk/internal/logger"
	"github.com/pharmadesk/internal/models"
	"github.com/pharmadesk/internal/provider"
	"github.com/pharmadesk/internal/service"
)

// 库存 CSV 表头：id,name,Manufacturer,expiry_date,quantity,price
var inventoryColumns = []string{"name", "Manufacturer", "expiry_date", "quantity", "price"}

func main() {
	var file string
	flag.StringVar(&file, "file", "", "库存 CSV 文件（为空时写入示例数据）")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions(logger.ComponentSeed))
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainer(cfg)
	defer func() {
		_ = container.QueueClient.Close()
		_ = cache.Close()
	}()

	inputs := sampleInventory(time.Now())
	if strings.TrimSpace(file) != "" {
		f, err := os.Open(file)
		if err != nil {
			stdLog.Fatalf("Failed to open %s: %v", file, err)
		}
		inputs, err = readInventoryCSV(f)
		_ = f.Close()
		if err != nil {
			stdLog.Fatalf("Failed to read %s: %v", file, err)
		}
	}

	created, merged := 0, 0
	for _, input := range inputs {
		result, err := container.InventoryService.AddMedicine(context.Background(), input)
		if err != nil {
			stdLog.Printf("Failed to seed medicine %s: %v", input.Name, err)
			continue
		}
		if result.Created {
			created++
		} else {
			merged++
		}
	}
	stdLog.Printf("Seed finished: %d created, %d merged", created, merged)
}

// readInventoryCSV 读取库存 CSV，按表头定位列，id 列忽略（主键自增）
func readInventoryCSV(r io.Reader) ([]service.AddMedicineInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, column := range header {
		index[strings.TrimSpace(column)] = i
	}
	for _, column := range inventoryColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("missing column %q", column)
		}
	}

	var inputs []service.AddMedicineInput
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		field := func(column string) string {
			idx := index[column]
			if idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}
		quantity := 0
		if raw := field("quantity"); raw != "" {
			quantity, err = strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid quantity %q", line, raw)
			}
		}
		price, err := service.ParsePrice(field("price"))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid price %q", line, field("price"))
		}
		inputs = append(inputs, service.AddMedicineInput{
			Name:         field("name"),
			Manufacturer: field("Manufacturer"),
			ExpiryDate:   field("expiry_date"),
			Quantity:     quantity,
			Price:        price,
		})
	}
	return inputs, nil
}

// sampleInventory 示例库存，覆盖正常 / 低库存 / 缺货 / 临期四种状态
func sampleInventory(now time.Time) []service.AddMedicineInput {
	money := func(raw string) *models.Money {
		price, _ := service.ParsePrice(raw)
		return price
	}
	date := func(days int) string {
		return now.AddDate(0, 0, days).Format(constants.DateLayout)
	}
	return []service.AddMedicineInput{
		{Name: "Paracetamol 500mg", Manufacturer: "GSK", ExpiryDate: date(400), Quantity: 120, Price: money("25.00")},
		{Name: "Amoxicillin 250mg", Manufacturer: "Cipla", ExpiryDate: date(300), Quantity: 15, Price: money("80.50")},
		{Name: "Cetirizine 10mg", Manufacturer: "Sun Pharma", ExpiryDate: date(200), Quantity: 0, Price: money("18.00")},
		{Name: "Azithromycin 500mg", Manufacturer: "Zydus", ExpiryDate: date(12), Quantity: 40, Price: money("110.00")},
		{Name: "Ibuprofen 400mg", Manufacturer: "Abbott", ExpiryDate: date(500), Quantity: 75, Price: money("32.75")},
		{Name: "ORS Sachet", Manufacturer: "Dr. Reddy's", ExpiryDate: date(180), Quantity: 60, Price: money("20.00")},
	}
}
