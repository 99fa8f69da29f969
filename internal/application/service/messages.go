package service

import (
	"fmt"

	"github.com/garyjia/hr-approvals/internal/domain/entity"
)

var kindLabels = map[entity.RequestKind]string{
	entity.KindLeave:      "Leave request",
	entity.KindOvertime:   "Overtime request",
	entity.KindAttendance: "Attendance correction",
}

func kindLabel(kind entity.RequestKind) string {
	if label, ok := kindLabels[kind]; ok {
		return label
	}
	return "Request"
}

func submittedMessage(req *entity.ApprovalRequest, submitter string) (string, string) {
	return fmt.Sprintf("%s awaiting your approval", kindLabel(req.Kind)),
		fmt.Sprintf("%s submitted request #%d. Please respond by %s.", submitter, req.ID, formatDue(req))
}

func overtimeInfoMessage(req *entity.ApprovalRequest, submitter string) (string, string) {
	return "Overtime registered in your branch",
		fmt.Sprintf("%s registered overtime (request #%d). It will reach you after team lead approval.", submitter, req.ID)
}

func teamLeadApprovedMessage(req *entity.ApprovalRequest) (string, string) {
	return fmt.Sprintf("%s awaiting branch approval", kindLabel(req.Kind)),
		fmt.Sprintf("Request #%d was approved by the team lead. Please respond by %s.", req.ID, formatDue(req))
}

func escalatedMessage(req *entity.ApprovalRequest) (string, string) {
	return fmt.Sprintf("%s escalated to branch", kindLabel(req.Kind)),
		fmt.Sprintf("HR escalated request #%d past the team lead. Please respond by %s.", req.ID, formatDue(req))
}

func rejectedMessage(req *entity.ApprovalRequest, tier string) (string, string) {
	return fmt.Sprintf("%s rejected", kindLabel(req.Kind)),
		fmt.Sprintf("Request #%d from employee #%d was rejected by the %s.", req.ID, req.EmployeeID, tier)
}

func approvedMessage(req *entity.ApprovalRequest) (string, string) {
	return fmt.Sprintf("%s approved", kindLabel(req.Kind)),
		fmt.Sprintf("Request #%d from employee #%d was approved by the branch manager.", req.ID, req.EmployeeID)
}

func overdueMessage(req *entity.ApprovalRequest) (string, string) {
	return fmt.Sprintf("%s overdue", kindLabel(req.Kind)),
		fmt.Sprintf("Request #%d has waited for team lead #%d since %s and can be escalated.",
			req.ID, req.TeamLeadID, req.CreatedAt.Format("2006-01-02 15:04"))
}

func formatDue(req *entity.ApprovalRequest) string {
	if req.DueAt == nil {
		return "soon"
	}
	return req.DueAt.Format("2006-01-02 15:04 MST")
}
