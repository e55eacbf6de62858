package repository

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// buildLikeCondition 构建多列大小写不敏感的 LIKE 条件，并返回参数数量。
func buildLikeCondition(db *gorm.DB, columns []string) (string, int) {
	return buildLikeConditionByDialect(dbDialectName(db), columns)
}

func buildLikeConditionByDialect(dialect string, columns []string) (string, int) {
	parts := make([]string, 0, len(columns))
	operator := likeOperatorByDialect(dialect)
	escape := likeEscapeClauseByDialect(dialect)
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		// sqlite 的 LIKE 仅对 ASCII 忽略大小写，统一 LOWER 后比较
		parts = append(parts, fmt.Sprintf("LOWER(%s) %s ?%s", trimmed, operator, escape))
	}
	return strings.Join(parts, " OR "), len(parts)
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

func likeEscapeClauseByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		// postgres 默认转义符即为反斜杠
		return ""
	default:
		return ` ESCAPE '\'`
	}
}

// likeFoldsCase LOWER + LIKE 能否对该关键词做大小写不敏感匹配。
// postgres 的 LOWER 支持 Unicode；sqlite 只在关键词为纯 ASCII 时成立。
func likeFoldsCase(dialect, keyword string) bool {
	if likeOperatorByDialect(dialect) == "ILIKE" {
		return true
	}
	for i := 0; i < len(keyword); i++ {
		if keyword[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// containsPattern 生成包含匹配的 LIKE 参数，转义用户输入中的通配符。
func containsPattern(keyword string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(strings.TrimSpace(keyword))) + "%"
}

// repeatLikeArgs 生成重复的 LIKE 参数列表。
func repeatLikeArgs(like string, count int) []interface{} {
	args := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}
