package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"student-wellness/backend/internal/access"
	"student-wellness/backend/internal/dto"
	"student-wellness/backend/internal/model"
	"student-wellness/backend/internal/repository"
	pkgerrors "student-wellness/backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoComplaints = errors.New("没有符合条件的投诉")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportComplaints 导出投诉为 Excel；指定部门时只导出该部门的部门投诉
	ExportComplaints(ctx context.Context, ac access.Context, req *dto.ComplaintExportRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var (
	departmentSheet   = "部门投诉"
	departmentColumns = []string{"投诉ID", "部门", "标题", "分类", "紧急程度", "状态", "学生姓名", "学生电话", "学生邮箱", "处理说明", "提交时间", "更新时间"}
	anonymousSheet    = "匿名投诉"
	// 匿名投诉不导出任何联系方式
	anonymousColumns = []string{"投诉ID", "标题", "分类", "状态", "处理说明", "提交时间", "更新时间"}
)

// ═══════════════════════════════════════════════════════════
// ExportComplaints — 导出投诉为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "部门投诉"：每行一条部门投诉
//   - Sheet "匿名投诉"：未指定部门时附加，不含联系方式
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportComplaints(ctx context.Context, ac access.Context, req *dto.ComplaintExportRequest) (*bytes.Buffer, string, error) {
	if !ac.IsAdmin() {
		return nil, "", pkgerrors.ErrAuthorization
	}

	// 1. 查询部门投诉（不分页）
	deptList, _, err := s.repo.Complaint.ListDepartment(ctx, repository.ComplaintFilter{
		DepartmentID: req.DepartmentID,
		Status:       req.Status,
	})
	if err != nil {
		s.logger.Error("查询部门投诉失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 未指定部门时附带匿名投诉
	var anonList []model.AnonymousComplaint
	if req.DepartmentID == "" {
		anonList, _, err = s.repo.Complaint.ListAnonymous(ctx, repository.ComplaintFilter{Status: req.Status})
		if err != nil {
			s.logger.Error("查询匿名投诉失败", zap.Error(err))
			return nil, "", err
		}
	}
	if len(deptList) == 0 && len(anonList) == 0 {
		return nil, "", ErrExportNoComplaints
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(departmentSheet)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	writeHeader(f, departmentSheet, departmentColumns, headerStyle)
	f.SetColWidth(departmentSheet, "A", "A", 38)
	f.SetColWidth(departmentSheet, "B", "I", 16)
	f.SetColWidth(departmentSheet, "J", "J", 40)
	f.SetColWidth(departmentSheet, "K", "L", 20)

	row := 2
	for _, c := range deptList {
		deptName := c.DepartmentID
		if c.Department != nil {
			deptName = c.Department.Name
		}
		email := ""
		if c.StudentEmail != nil {
			email = *c.StudentEmail
		}
		values := []interface{}{
			c.ComplaintID, deptName, c.Title, c.Category, urgencyLabel(c.Urgency), statusLabel(c.Status),
			c.StudentName, c.StudentPhone, email, c.ResolutionNotes,
			formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
		}
		for i, v := range values {
			f.SetCellValue(departmentSheet, cell(colName(i), row), v)
		}
		row++
	}

	if req.DepartmentID == "" {
		f.NewSheet(anonymousSheet)
		writeHeader(f, anonymousSheet, anonymousColumns, headerStyle)
		f.SetColWidth(anonymousSheet, "A", "A", 38)
		f.SetColWidth(anonymousSheet, "B", "D", 16)
		f.SetColWidth(anonymousSheet, "E", "E", 40)
		f.SetColWidth(anonymousSheet, "F", "G", 20)

		row = 2
		for _, c := range anonList {
			values := []interface{}{
				c.ComplaintID, c.Title, c.Category, statusLabel(c.Status), c.ResolutionNotes,
				formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
			}
			for i, v := range values {
				f.SetCellValue(anonymousSheet, cell(colName(i), row), v)
			}
			row++
		}
	}

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.logger.Info("投诉已导出",
		zap.String("exported_by", ac.UserID()),
		zap.Int("department_rows", len(deptList)),
		zap.Int("anonymous_rows", len(anonList)),
	)

	filename := fmt.Sprintf("投诉导出_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, columns []string, style int) {
	for i, title := range columns {
		f.SetCellValue(sheet, cell(colName(i), 1), title)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(columns)-1), 1), style)
}

func statusLabel(status string) string {
	switch status {
	case model.ComplaintSubmitted:
		return "已提交"
	case model.ComplaintInReview:
		return "处理中"
	case model.ComplaintResolved:
		return "已解决"
	case model.ComplaintRejected:
		return "已驳回"
	default:
		return status
	}
}

func urgencyLabel(urgency string) string {
	switch urgency {
	case model.UrgencyLow:
		return "低"
	case model.UrgencyMedium:
		return "中"
	case model.UrgencyHigh:
		return "高"
	case model.UrgencyCritical:
		return "紧急"
	default:
		return urgency
	}
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
